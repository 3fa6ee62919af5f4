package protocol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineResponseEventType(t *testing.T) {
	r := NewInlineResponse("get_globals")
	got, err := EventType(r)
	require.NoError(t, err)
	assert.Equal(t, "get_globals_response", got)
	assert.Equal(t, ResponseEventType("get_globals"), got)

	// the correlation key wins over an explicit extra
	r = NewInlineResponse("get_globals", F("event_type", "other"))
	assert.Equal(t, "get_globals_response", r.MustGet("event_type"))
}

func TestResponseEventTypeDefaults(t *testing.T) {
	tests := []struct {
		name string
		msg  *Record
		want string
	}{
		{"toplevel", NewToplevelResponse(), "ToplevelResponse"},
		{"debugger", NewDebuggerResponse(), "DebuggerResponse"},
		{"toplevel override", NewToplevelResponse(F("event_type", "BackendRestart")), "BackendRestart"},
		{"event", NewBackendEvent("InputRequest", F("method", "readline")), "InputRequest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EventType(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventTypeRejectsCommands(t *testing.T) {
	_, err := EventType(NewInlineCommand("get_globals"))
	assert.Error(t, err)
	_, err = EventType(nil)
	assert.Error(t, err)
}

func TestToplevelCommandArgvIndependent(t *testing.T) {
	a := NewToplevelCommand("Run", nil)
	b := NewToplevelCommand("Run", nil)

	argv, err := a.GetList("argv")
	require.NoError(t, err)
	assert.Empty(t, argv)
	a.Set("argv", append(argv, "script.py"))

	other, err := b.GetList("argv")
	require.NoError(t, err)
	assert.Empty(t, other)
	assert.False(t, a.Equal(b))
}

func TestToplevelCommandCopiesArgv(t *testing.T) {
	argv := []string{"a.py"}
	cmd := NewToplevelCommand("Run", argv)
	argv[0] = "b.py"

	got, err := cmd.GetList("argv")
	require.NoError(t, err)
	assert.Equal(t, List{"a.py"}, got)
}

func TestKindFamilies(t *testing.T) {
	commands := []*Record{NewToplevelCommand("x", nil), NewDebuggerCommand("x"), NewInlineCommand("x")}
	for _, c := range commands {
		assert.True(t, c.Kind().IsCommand(), c.Kind())
		assert.False(t, c.Kind().IsBackendMessage(), c.Kind())
		name, err := CommandName(c)
		require.NoError(t, err)
		assert.Equal(t, "x", name)
	}

	messages := []*Record{NewToplevelResponse(), NewDebuggerResponse(), NewBackendEvent("e"), NewInlineResponse("x")}
	for _, m := range messages {
		assert.True(t, m.Kind().IsBackendMessage(), m.Kind())
		assert.False(t, m.Kind().IsCommand(), m.Kind())
	}

	assert.False(t, KindInputSubmission.IsCommand())
	assert.False(t, Kind("Exec").Known())
	assert.True(t, KindFrameInfo.Known())
}

func TestUserError(t *testing.T) {
	err := NewUserError("no such folder: %s", "/x")
	assert.True(t, IsUserError(err))
	assert.Equal(t, "no such folder: /x", err.Error())

	wrapped := fmt.Errorf("cd: %w", err)
	assert.True(t, IsUserError(wrapped))
	assert.False(t, IsUserError(ErrMissingField))
}

package channel

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3defined/thonny/internal/protocol"
)

func TestConnSendReceiveInOrder(t *testing.T) {
	a, b := net.Pipe()
	left, right := NewConn(a), NewConn(b)
	defer left.Close()
	defer right.Close()

	msgs := []*protocol.Record{
		protocol.NewToplevelCommand("Run", []string{"script.py"}),
		protocol.NewInlineCommand("get_globals", protocol.F("module_name", "__main__")),
		protocol.NewInputSubmission("jää\n"),
	}
	go func() {
		for _, m := range msgs {
			if err := left.Send(m); err != nil {
				return
			}
		}
	}()

	for i, want := range msgs {
		got, err := right.Receive()
		require.NoError(t, err, "message %d", i)
		assert.True(t, got.Equal(want), "message %d: got %s", i, got.Repr())
	}
}

func TestConnContinuesAfterDecodeError(t *testing.T) {
	good, err := protocol.Encode(protocol.NewBackendEvent("ProgramOutput", protocol.F("data", "ok")))
	require.NoError(t, err)

	input := "Exec(code=1)\r\n\n" + good + "\r\n" + good
	c := New(strings.NewReader(input), io.Discard, nil)

	_, err = c.Receive()
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocol.ErrProtocolDecode))

	for i := 0; i < 2; i++ {
		rec, err := c.Receive()
		require.NoError(t, err)
		assert.Equal(t, "ok", rec.MustGet("data"))
	}

	_, err = c.Receive()
	assert.Equal(t, io.EOF, err)
}

func TestConnDropsOversizedLines(t *testing.T) {
	old := maxLineSize
	maxLineSize = 128
	defer func() { maxLineSize = old }()

	good, err := protocol.Encode(protocol.NewBackendEvent("ProgramOutput", protocol.F("data", "ok")))
	require.NoError(t, err)
	require.LessOrEqual(t, len(good), maxLineSize)

	input := strings.Repeat("x", 10000) + "\n" +
		strings.Repeat("y", maxLineSize+1) + "\n" +
		good + "\n" +
		strings.Repeat("z", 500)
	c := New(strings.NewReader(input), io.Discard, nil)

	for i := 0; i < 2; i++ {
		_, err = c.Receive()
		var de *protocol.DecodeError
		require.True(t, errors.As(err, &de), "line %d: err = %v", i, err)
		assert.Contains(t, de.Msg, "longer than")
	}

	rec, err := c.Receive()
	require.NoError(t, err)
	assert.Equal(t, "ok", rec.MustGet("data"))

	_, err = c.Receive()
	assert.True(t, errors.Is(err, protocol.ErrProtocolDecode), "unterminated tail: err = %v", err)
	_, err = c.Receive()
	assert.Equal(t, io.EOF, err)
}

func TestConnSendWritesOneLine(t *testing.T) {
	var sb strings.Builder
	c := New(strings.NewReader(""), &sb, nil)
	require.NoError(t, c.Send(protocol.NewInputSubmission("a\nb\n")))

	out := sb.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestConnSendAfterClose(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	c := NewConn(a)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Send(protocol.NewInputSubmission("x"))
	assert.True(t, errors.Is(err, ErrClosed), "err = %v", err)
}

func TestConnSendRejectsUnencodable(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard, nil)
	assert.Error(t, c.Send(protocol.NewRecord(protocol.Kind("Exec"))))
}

func TestConnReceiveEOFWhenPeerCloses(t *testing.T) {
	a, b := net.Pipe()
	c := NewConn(a)
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		_, err := c.Receive()
		done <- err
	}()
	b.Close()

	select {
	case err := <-done:
		assert.Equal(t, io.EOF, err)
	case <-time.After(time.Second):
		t.Fatal("Receive() did not return after peer closed")
	}
}

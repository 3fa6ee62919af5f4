package frontend

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3defined/thonny/internal/backend"
	"github.com/R3defined/thonny/internal/channel"
	"github.com/R3defined/thonny/internal/protocol"
)

// pipeRunner starts a Runner whose peer is the returned raw back-end end.
func pipeRunner(t *testing.T) (*Runner, *channel.Conn) {
	t.Helper()
	a, b := net.Pipe()
	r := NewRunner(channel.NewConn(a), nil)
	r.Start()
	peer := channel.NewConn(b)
	t.Cleanup(func() {
		r.Close()
		peer.Close()
	})
	return r, peer
}

// backendRunner starts a Runner talking to an in-process back-end.
func backendRunner(t *testing.T) (*Runner, *backend.Backend) {
	t.Helper()
	a, b := net.Pipe()
	be := backend.New(nil, nil, backend.WithWorkdir(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		defer close(served)
		be.Serve(ctx, channel.NewConn(b)) //nolint:errcheck
	}()

	r := NewRunner(channel.NewConn(a), nil)
	r.Start()
	t.Cleanup(func() {
		cancel()
		r.Close()
		<-served
	})
	return r, be
}

func TestInlineAgainstBackend(t *testing.T) {
	r, be := backendRunner(t)
	be.Inspector().SetGlobal(backend.MainModule, "answer", "42")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := r.Inline(ctx, protocol.NewInlineCommand("get_globals"))
	require.NoError(t, err)

	globals, err := resp.GetDict("globals")
	require.NoError(t, err)
	v, ok := globals.Get("answer")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestStackAgainstBackend(t *testing.T) {
	r, be := backendRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := r.Stack(ctx)
	require.Error(t, err)
	assert.True(t, protocol.IsUserError(err), "err = %v", err)
	assert.Contains(t, err.Error(), "not being debugged")

	focus := protocol.TextRange{Lineno: 2, ColOffset: 0, EndLineno: 2, EndColOffset: 5}
	be.Inspector().PushFrame(backend.Frame{Info: protocol.FrameInfo{ID: 4, CodeName: "<module>", Filename: "/p/main.py"}})
	be.Inspector().PushFrame(backend.Frame{Info: protocol.FrameInfo{ID: 9, CodeName: "f", Filename: "/p/lib.py", Focus: &focus}})

	frames, err := r.Stack(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, int64(4), frames[0].ID)
	assert.Equal(t, focus, *frames[1].Focus)
}

func TestRequestMatchesResponseVariant(t *testing.T) {
	r, be := backendRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := r.Request(ctx, protocol.NewToplevelCommand("cd", []string{"/definitely/not/here"}))
	require.NoError(t, err)
	assert.Equal(t, protocol.KindToplevelResponse, resp.Kind())
	assert.Contains(t, resp.MustGet("error"), "no such folder")
	assert.Equal(t, be.Cwd(), resp.MustGet("cwd"))

	_, err = r.Request(ctx, protocol.NewInlineCommand("get_globals"))
	assert.Error(t, err)
}

func TestBindRoutesInOrder(t *testing.T) {
	r, be := backendRunner(t)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	r.Bind("ProgramOutput", func(msg *protocol.Record) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "output")
	})
	r.Bind("ToplevelResponse", func(msg *protocol.Record) {
		mu.Lock()
		got = append(got, "response:"+msg.Lookup("welcome_text", "").(string))
		mu.Unlock()
		close(done)
	})

	require.NoError(t, r.Send(protocol.NewToplevelCommand("Reset", nil)))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ToplevelResponse not routed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"output", "response:thonny backend"}, got)
	_ = be
}

func TestUnbindStopsDelivery(t *testing.T) {
	r, peer := pipeRunner(t)

	calls := make(chan string, 4)
	unbindA := r.Bind("Tick", func(*protocol.Record) { calls <- "a" })
	r.Bind("Tick", func(*protocol.Record) { calls <- "b" })

	require.NoError(t, peer.Send(protocol.NewBackendEvent("Tick")))
	assert.Equal(t, "a", <-calls)
	assert.Equal(t, "b", <-calls)

	unbindA()
	unbindA()
	require.NoError(t, peer.Send(protocol.NewBackendEvent("Tick")))
	assert.Equal(t, "b", <-calls)
	select {
	case c := <-calls:
		t.Fatalf("unexpected delivery to %q", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInlineRejectsSecondPendingSameName(t *testing.T) {
	r, peer := pipeRunner(t)

	first := make(chan error, 1)
	go func() {
		_, err := r.Inline(context.Background(), protocol.NewInlineCommand("get_globals"))
		first <- err
	}()

	cmd, err := peer.Receive()
	require.NoError(t, err)
	name, _ := protocol.CommandName(cmd)
	require.Equal(t, "get_globals", name)

	_, err = r.Inline(context.Background(), protocol.NewInlineCommand("get_globals"))
	assert.True(t, errors.Is(err, ErrInlinePending), "err = %v", err)

	require.NoError(t, peer.Send(protocol.NewInlineResponse("get_globals")))
	select {
	case err := <-first:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first Inline did not complete")
	}
}

func TestInlineDistinctNamesInterleave(t *testing.T) {
	r, peer := pipeRunner(t)

	type result struct {
		resp *protocol.Record
		err  error
	}
	results := make(map[string]chan result)
	for _, name := range []string{"get_globals", "get_frame_info"} {
		ch := make(chan result, 1)
		results[name] = ch
		go func(name string) {
			resp, err := r.Inline(context.Background(), protocol.NewInlineCommand(name))
			ch <- result{resp, err}
		}(name)
	}

	for i := 0; i < 2; i++ {
		_, err := peer.Receive()
		require.NoError(t, err)
	}
	// answer in reverse order; correlation is by name only
	require.NoError(t, peer.Send(protocol.NewInlineResponse("get_frame_info", protocol.F("n", 2))))
	require.NoError(t, peer.Send(protocol.NewInlineResponse("get_globals", protocol.F("n", 1))))

	for name, want := range map[string]int64{"get_globals": 1, "get_frame_info": 2} {
		res := <-results[name]
		require.NoError(t, res.err)
		assert.Equal(t, want, res.resp.MustGet("n"), name)
	}
}

func TestInlineHonorsContext(t *testing.T) {
	r, peer := pipeRunner(t)
	go func() {
		peer.Receive() //nolint:errcheck
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Inline(ctx, protocol.NewInlineCommand("slow"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)

	// the name is free again
	go func() {
		_, _ = peer.Receive()
		_ = peer.Send(protocol.NewInlineResponse("slow"))
	}()
	_, err = r.Inline(context.Background(), protocol.NewInlineCommand("slow"))
	assert.NoError(t, err)
}

func TestInlineFailsWhenChannelCloses(t *testing.T) {
	r, peer := pipeRunner(t)
	go func() {
		peer.Receive() //nolint:errcheck
		peer.Close()
	}()

	_, err := r.Inline(context.Background(), protocol.NewInlineCommand("get_globals"))
	assert.True(t, errors.Is(err, channel.ErrClosed), "err = %v", err)

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("runner not done after peer closed")
	}
	assert.NoError(t, r.Err())
}

func TestSendAndInlineValidateKinds(t *testing.T) {
	r, _ := pipeRunner(t)
	assert.Error(t, r.Send(protocol.NewBackendEvent("x")))
	assert.Error(t, r.Send(nil))
	_, err := r.Inline(context.Background(), protocol.NewToplevelCommand("Run", nil))
	assert.Error(t, err)
}

func TestRunnerSkipsUndecodableLines(t *testing.T) {
	a, b := net.Pipe()
	r := NewRunner(channel.NewConn(a), nil)
	r.Start()
	defer r.Close()
	defer b.Close()

	got := make(chan *protocol.Record, 1)
	r.Bind("Ping", func(msg *protocol.Record) { got <- msg })

	line, err := protocol.Encode(protocol.NewBackendEvent("Ping"))
	require.NoError(t, err)
	_, err = b.Write([]byte("os.system(1)\n" + line + "\n"))
	require.NoError(t, err)

	select {
	case msg := <-got:
		assert.Equal(t, "Ping", msg.MustGet("event_type"))
	case <-time.After(time.Second):
		t.Fatal("valid message after garbage was not routed")
	}
}

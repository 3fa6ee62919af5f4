// Package frontend drives a back-end from the user-facing side: it sends
// commands, routes incoming messages by event_type to bound handlers and
// pairs inline queries with their responses.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/R3defined/thonny/internal/channel"
	"github.com/R3defined/thonny/internal/logging"
	"github.com/R3defined/thonny/internal/protocol"
)

// ErrInlinePending is returned by Inline when a command with the same name
// is still waiting for its response.
var ErrInlinePending = errors.New("inline command already pending")

// Handler receives a message routed by its event_type. Handlers run on the
// reader goroutine in arrival order and must not block on the Runner.
type Handler func(msg *protocol.Record)

type binding struct {
	h Handler
}

// Runner is the front-end end of one back-end session.
type Runner struct {
	conn    *channel.Conn
	logger  *logging.Logger
	session string

	mu       sync.Mutex
	handlers map[string][]*binding
	pending  map[string]chan *protocol.Record

	startOnce sync.Once
	done      chan struct{}
	err       error
}

// NewRunner wraps conn. Call Start to begin reading.
func NewRunner(conn *channel.Conn, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	session := uuid.NewString()
	return &Runner{
		conn:     conn,
		logger:   logger.With("component", "frontend", "session", session),
		session:  session,
		handlers: make(map[string][]*binding),
		pending:  make(map[string]chan *protocol.Record),
		done:     make(chan struct{}),
	}
}

// Session returns the id this runner logs under.
func (r *Runner) Session() string {
	return r.session
}

// Start launches the reader goroutine. Calling it again has no effect.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		go r.readLoop()
	})
}

// Done is closed when the back-end channel ends.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Err reports why the channel ended; nil for a clean EOF.
func (r *Runner) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Bind registers h for messages with the given event_type and returns a
// func that removes it.
func (r *Runner) Bind(eventType string, h Handler) (unbind func()) {
	b := &binding{h: h}
	r.mu.Lock()
	r.handlers[eventType] = append(r.handlers[eventType], b)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			list := r.handlers[eventType]
			for i, x := range list {
				if x == b {
					r.handlers[eventType] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(r.handlers[eventType]) == 0 {
				delete(r.handlers, eventType)
			}
		})
	}
}

// Send writes a command or an InputSubmission to the back-end.
func (r *Runner) Send(msg *protocol.Record) error {
	if msg == nil || !(msg.Kind().IsCommand() || msg.Kind() == protocol.KindInputSubmission) {
		return fmt.Errorf("send: %v is not a command or input submission", kindOf(msg))
	}
	return r.conn.Send(msg)
}

// Inline sends an inline command and waits for its <name>_response.
// Only one command per name may be outstanding.
func (r *Runner) Inline(ctx context.Context, cmd *protocol.Record) (*protocol.Record, error) {
	if cmd == nil || cmd.Kind() != protocol.KindInlineCommand {
		return nil, fmt.Errorf("inline: %v is not an inline command", kindOf(cmd))
	}
	name, err := protocol.CommandName(cmd)
	if err != nil {
		return nil, err
	}
	key := protocol.ResponseEventType(name)

	ch := make(chan *protocol.Record, 1)
	r.mu.Lock()
	if _, busy := r.pending[key]; busy {
		r.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", name, ErrInlinePending)
	}
	r.pending[key] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		if r.pending[key] == ch {
			delete(r.pending, key)
		}
		r.mu.Unlock()
	}()

	if err := r.conn.Send(cmd); err != nil {
		return nil, err
	}
	return r.await(ctx, ch, name)
}

// Request sends a toplevel or debugger command and waits for the next
// ToplevelResponse or DebuggerResponse. Responses whose event_type was
// overridden are not matched.
func (r *Runner) Request(ctx context.Context, cmd *protocol.Record) (*protocol.Record, error) {
	var eventType string
	switch kindOf(cmd) {
	case string(protocol.KindToplevelCommand):
		eventType = string(protocol.KindToplevelResponse)
	case string(protocol.KindDebuggerCommand):
		eventType = string(protocol.KindDebuggerResponse)
	default:
		return nil, fmt.Errorf("request: %v is not a toplevel or debugger command", kindOf(cmd))
	}

	ch := make(chan *protocol.Record, 1)
	unbind := r.Bind(eventType, func(msg *protocol.Record) {
		select {
		case ch <- msg:
		default:
		}
	})
	defer unbind()

	if err := r.conn.Send(cmd); err != nil {
		return nil, err
	}
	return r.await(ctx, ch, eventType)
}

func (r *Runner) await(ctx context.Context, ch <-chan *protocol.Record, what string) (*protocol.Record, error) {
	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		// a response may have raced the close
		select {
		case resp := <-ch:
			return resp, nil
		default:
		}
		return nil, fmt.Errorf("%s: %w", what, channel.ErrClosed)
	}
}

// Close ends the session.
func (r *Runner) Close() error {
	return r.conn.Close()
}

func (r *Runner) readLoop() {
	defer close(r.done)
	for {
		msg, err := r.conn.Receive()
		if err != nil {
			if errors.Is(err, protocol.ErrProtocolDecode) {
				r.logger.Warn("dropping undecodable message", "error", err)
				continue
			}
			if !isClosed(err) {
				r.err = err
				r.logger.Debug("backend channel ended", "error", err)
			}
			return
		}
		r.route(msg)
	}
}

func (r *Runner) route(msg *protocol.Record) {
	eventType, err := protocol.EventType(msg)
	if err != nil {
		r.logger.Warn("dropping message without event_type", "kind", string(msg.Kind()), "error", err)
		return
	}

	r.mu.Lock()
	if ch, ok := r.pending[eventType]; ok && msg.Kind() == protocol.KindInlineResponse {
		delete(r.pending, eventType)
		ch <- msg
	}
	bound := append([]*binding(nil), r.handlers[eventType]...)
	r.mu.Unlock()

	if len(bound) == 0 {
		r.logger.Debug("no handler bound", "event_type", eventType)
	}
	for _, b := range bound {
		b.h(msg)
	}
}

// isClosed reports whether err means the channel was closed rather than
// broken.
func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, net.ErrClosed)
}

func kindOf(msg *protocol.Record) string {
	if msg == nil {
		return "nil"
	}
	return string(msg.Kind())
}

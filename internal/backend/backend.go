// Package backend answers front-end commands. It decodes one command at a
// time from a channel, routes it by variant and name to a handler, and
// writes back the response variant that matches the command.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/R3defined/thonny/internal/channel"
	"github.com/R3defined/thonny/internal/logging"
	"github.com/R3defined/thonny/internal/protocol"
)

// Emitter pushes asynchronous BackendEvents to the front-end while a
// command is being handled.
type Emitter interface {
	Emit(eventType string, fields ...protocol.Field) error
}

// HandlerFunc handles one command and returns the fields of its response.
// Errors are reported to the front-end inside the response.
type HandlerFunc func(ctx context.Context, cmd *protocol.Record, emit Emitter) ([]protocol.Field, error)

type route struct {
	kind protocol.Kind
	name string
}

// Backend owns the execution state shared by all sessions.
type Backend struct {
	logger    *logging.Logger
	inspector *Inspector
	welcome   string

	mu       sync.RWMutex
	handlers map[route]HandlerFunc
	cwd      string
}

// Option configures a Backend.
type Option func(*Backend)

// WithWorkdir sets the initial working directory.
func WithWorkdir(dir string) Option {
	return func(b *Backend) { b.cwd = dir }
}

// WithWelcome sets the text returned by Reset.
func WithWelcome(text string) Option {
	return func(b *Backend) { b.welcome = text }
}

// New creates a Backend with the built-in commands registered.
func New(logger *logging.Logger, inspector *Inspector, opts ...Option) *Backend {
	if logger == nil {
		logger = logging.Discard()
	}
	if inspector == nil {
		inspector = NewInspector()
	}
	b := &Backend{
		logger:    logger,
		inspector: inspector,
		welcome:   "thonny backend",
		handlers:  make(map[route]HandlerFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cwd == "" {
		b.cwd, _ = os.Getwd()
	}
	b.registerBuiltins()
	return b
}

// Inspector returns the state the inline queries read.
func (b *Backend) Inspector() *Inspector {
	return b.inspector
}

// Handle registers h for commands of the given variant and name,
// replacing any earlier handler. It panics if kind is not a command.
func (b *Backend) Handle(kind protocol.Kind, name string, h HandlerFunc) {
	if !kind.IsCommand() {
		panic(fmt.Sprintf("backend: %s is not a command variant", kind))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[route{kind, name}] = h
}

// Cwd returns the back-end's working directory.
func (b *Backend) Cwd() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cwd
}

func (b *Backend) setCwd(dir string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cwd = dir
}

// Serve processes commands from conn in arrival order until the peer
// disconnects or ctx is canceled. A line that fails to decode is logged
// and skipped.
func (b *Backend) Serve(ctx context.Context, conn *channel.Conn) error {
	log := b.logger.With("session", uuid.NewString())
	log.Info("session started")
	defer log.Info("session ended")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := conn.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, channel.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, protocol.ErrProtocolDecode) {
				log.Warn("dropping undecodable message", "error", err)
				continue
			}
			return err
		}

		switch {
		case msg.Kind() == protocol.KindInputSubmission:
			data, err := msg.GetString("data")
			if err != nil {
				log.Warn("dropping input submission", "error", err)
				continue
			}
			b.inspector.Submit(data)
		case msg.Kind().IsCommand():
			resp := b.dispatch(ctx, log, msg, &connEmitter{conn: conn})
			if err := conn.Send(resp); err != nil {
				return fmt.Errorf("sending response: %w", err)
			}
		default:
			log.Warn("ignoring message that is not a command", "kind", string(msg.Kind()))
		}
	}
}

// Dispatch runs one command and returns its response.
func (b *Backend) Dispatch(ctx context.Context, cmd *protocol.Record, emit Emitter) *protocol.Record {
	return b.dispatch(ctx, b.logger, cmd, emit)
}

func (b *Backend) dispatch(ctx context.Context, log *logging.Logger, cmd *protocol.Record, emit Emitter) *protocol.Record {
	resp := b.run(ctx, log, cmd, emit)
	if resp.Kind() == protocol.KindToplevelResponse {
		resp.SetDefault("cwd", b.Cwd())
		resp.SetDefault("loaded_modules", b.inspector.LoadedModules())
	}
	return resp
}

func (b *Backend) run(ctx context.Context, log *logging.Logger, cmd *protocol.Record, emit Emitter) *protocol.Record {
	name, err := protocol.CommandName(cmd)
	if err != nil {
		// decoding guarantees a name; only in-process callers get here
		return respond(cmd.Kind(), "", nil, err)
	}
	log.Debug("handling command", "kind", string(cmd.Kind()), "name", name)

	b.mu.RLock()
	h, ok := b.handlers[route{cmd.Kind(), name}]
	b.mu.RUnlock()
	if !ok {
		return respond(cmd.Kind(), name, nil, b.unknownCommand(cmd.Kind(), name))
	}

	fields, err := h(ctx, cmd, emit)
	if err != nil {
		if protocol.IsUserError(err) {
			log.Debug("command failed", "name", name, "error", err)
		} else {
			log.Error("command failed", "name", name, "error", err)
		}
	}
	return respond(cmd.Kind(), name, fields, err)
}

func (b *Backend) unknownCommand(kind protocol.Kind, name string) error {
	if kind == protocol.KindDebuggerCommand {
		return protocol.NewUserError("program is not being debugged")
	}
	return protocol.NewUserError("unknown command %q", name)
}

func respond(kind protocol.Kind, name string, fields []protocol.Field, err error) *protocol.Record {
	if err != nil {
		fields = append(fields, protocol.F("error", err.Error()))
		if !protocol.IsUserError(err) {
			fields = append(fields, protocol.F("internal", true))
		}
	}
	switch kind {
	case protocol.KindDebuggerCommand:
		return protocol.NewDebuggerResponse(fields...)
	case protocol.KindInlineCommand:
		return protocol.NewInlineResponse(name, fields...)
	default:
		return protocol.NewToplevelResponse(fields...)
	}
}

type connEmitter struct {
	conn *channel.Conn
}

func (e *connEmitter) Emit(eventType string, fields ...protocol.Field) error {
	return e.conn.Send(protocol.NewBackendEvent(eventType, fields...))
}

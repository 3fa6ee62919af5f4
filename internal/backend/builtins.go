package backend

import (
	"context"
	"os"
	"path/filepath"

	"github.com/R3defined/thonny/internal/pathid"
	"github.com/R3defined/thonny/internal/protocol"
)

var canonicalCaseFn = pathid.CanonicalCase

func (b *Backend) registerBuiltins() {
	b.handlers[route{protocol.KindInlineCommand, "get_globals"}] = b.getGlobals
	b.handlers[route{protocol.KindInlineCommand, "get_frame_info"}] = b.getFrameInfo
	b.handlers[route{protocol.KindToplevelCommand, "cd"}] = b.changeDir
	b.handlers[route{protocol.KindToplevelCommand, "Reset"}] = b.reset
	b.handlers[route{protocol.KindDebuggerCommand, "get_stack"}] = b.getStack
}

func (b *Backend) getGlobals(_ context.Context, cmd *protocol.Record, _ Emitter) ([]protocol.Field, error) {
	module, ok := cmd.Lookup("module_name", MainModule).(string)
	if !ok {
		return nil, protocol.NewUserError("module_name must be a string")
	}
	fields := []protocol.Field{
		protocol.F("module_name", module),
		protocol.F("loaded_modules", b.inspector.LoadedModules()),
	}
	globals, ok := b.inspector.Globals(module)
	if !ok {
		return fields, protocol.NewUserError("module %q is not loaded", module)
	}
	return append(fields, protocol.F("globals", globals)), nil
}

func (b *Backend) getFrameInfo(_ context.Context, cmd *protocol.Record, _ Emitter) ([]protocol.Field, error) {
	id, err := cmd.GetInt("frame_id")
	if err != nil {
		return nil, protocol.NewUserError("get_frame_info needs an integer frame_id")
	}
	frame, ok := b.inspector.Frame(id)
	if !ok {
		return []protocol.Field{protocol.F("frame_id", id)}, protocol.NewUserError("frame %d not found", id)
	}
	return []protocol.Field{
		protocol.F("frame_id", id),
		protocol.F("frame", frame.Info),
		protocol.F("name", frame.Info.CodeName),
		protocol.F("locals", frame.Locals),
		protocol.F("globals", frame.Globals),
	}, nil
}

func (b *Backend) changeDir(_ context.Context, cmd *protocol.Record, _ Emitter) ([]protocol.Field, error) {
	argv, err := cmd.GetList("argv")
	if err != nil || len(argv) != 1 {
		return nil, protocol.NewUserError("cd takes one argument")
	}
	dir, _ := argv[0].(string)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(b.Cwd(), dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, protocol.NewUserError("no such folder: %s", dir)
	}
	canonical, err := canonicalCaseFn(dir)
	if err != nil {
		return nil, err
	}
	b.setCwd(canonical)
	return nil, nil
}

func (b *Backend) reset(_ context.Context, _ *protocol.Record, emit Emitter) ([]protocol.Field, error) {
	b.inspector.Reset()
	if emit != nil {
		if err := emit.Emit("ProgramOutput", protocol.F("stream_name", "stdout"), protocol.F("data", b.welcome+"\n")); err != nil {
			return nil, err
		}
	}
	return []protocol.Field{protocol.F("welcome_text", b.welcome)}, nil
}

func (b *Backend) getStack(_ context.Context, _ *protocol.Record, _ Emitter) ([]protocol.Field, error) {
	stack := b.inspector.Stack()
	if len(stack) == 0 {
		return nil, protocol.NewUserError("program is not being debugged")
	}
	frames := make(protocol.List, len(stack))
	for i, f := range stack {
		frames[i] = f.Record()
	}
	return []protocol.Field{protocol.F("stack", frames)}, nil
}

package backend

import (
	"sort"
	"sync"

	"github.com/R3defined/thonny/internal/protocol"
)

// MainModule is the module user programs run in.
const MainModule = "__main__"

// Frame is one paused stack frame as the back-end sees it.
type Frame struct {
	Info    protocol.FrameInfo
	Locals  *protocol.Dict
	Globals *protocol.Dict
}

// Inspector holds the execution state the inline queries report on:
// module globals, the current frames and queued program input. Variable
// values are kept as display strings.
type Inspector struct {
	mu      sync.Mutex
	modules map[string]*protocol.Dict
	frames  map[int64]Frame
	input   []string
}

// NewInspector returns an Inspector with an empty __main__ module.
func NewInspector() *Inspector {
	i := &Inspector{}
	i.Reset()
	return i
}

// Reset drops all state and recreates __main__.
func (i *Inspector) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	main := protocol.NewDict()
	main.Set("__name__", "'__main__'")
	i.modules = map[string]*protocol.Dict{MainModule: main}
	i.frames = make(map[int64]Frame)
	i.input = nil
}

// SetGlobal records a module-level variable, loading the module if needed.
func (i *Inspector) SetGlobal(module, name, repr string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	d, ok := i.modules[module]
	if !ok {
		d = protocol.NewDict()
		i.modules[module] = d
	}
	d.Set(name, repr)
}

// Globals returns a copy of a module's variables.
func (i *Inspector) Globals(module string) (*protocol.Dict, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	d, ok := i.modules[module]
	if !ok {
		return nil, false
	}
	return cloneDict(d), true
}

// LoadedModules returns the sorted module names.
func (i *Inspector) LoadedModules() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	names := make([]string, 0, len(i.modules))
	for name := range i.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PushFrame records a paused frame, replacing one with the same id.
func (i *Inspector) PushFrame(f Frame) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if f.Locals == nil {
		f.Locals = protocol.NewDict()
	}
	if f.Globals == nil {
		f.Globals = protocol.NewDict()
	}
	i.frames[f.Info.ID] = f
}

// ClearFrames forgets all frames, e.g. when the program resumes.
func (i *Inspector) ClearFrames() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.frames = make(map[int64]Frame)
}

// Frame looks up a paused frame by id.
func (i *Inspector) Frame(id int64) (Frame, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	f, ok := i.frames[id]
	if !ok {
		return Frame{}, false
	}
	f.Locals = cloneDict(f.Locals)
	f.Globals = cloneDict(f.Globals)
	return f, true
}

// Stack returns the paused frames ordered by id.
func (i *Inspector) Stack() []protocol.FrameInfo {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]protocol.FrameInfo, 0, len(i.frames))
	for _, f := range i.frames {
		out = append(out, f.Info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Submit queues program input.
func (i *Inspector) Submit(data string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.input = append(i.input, data)
}

// ReadInput pops the oldest queued input.
func (i *Inspector) ReadInput() (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.input) == 0 {
		return "", false
	}
	data := i.input[0]
	i.input = i.input[1:]
	return data, true
}

func cloneDict(d *protocol.Dict) *protocol.Dict {
	out := protocol.NewDict()
	for _, e := range d.Entries() {
		out.Set(e.Key, e.Value)
	}
	return out
}

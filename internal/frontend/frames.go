package frontend

import (
	"context"
	"errors"
	"fmt"

	"github.com/R3defined/thonny/internal/pathid"
	"github.com/R3defined/thonny/internal/protocol"
)

var (
	samePathFn       = pathid.SamePath
	pathStartsWithFn = pathid.PathStartsWith
)

// Stack asks a paused back-end for its frames, ordered by id. A back-end
// that is not debugging answers with a user error.
func (r *Runner) Stack(ctx context.Context) ([]protocol.FrameInfo, error) {
	resp, err := r.Request(ctx, protocol.NewDebuggerCommand("get_stack"))
	if err != nil {
		return nil, err
	}
	if msg, ok := resp.Lookup("error", nil).(string); ok {
		if internal, _ := resp.Lookup("internal", false).(bool); internal {
			return nil, errors.New(msg)
		}
		return nil, protocol.NewUserError("%s", msg)
	}
	return StackFromMessage(resp)
}

// FrameAt returns the frame whose focus is the narrowest one enclosing pos.
func FrameAt(frames []protocol.FrameInfo, pos protocol.TextRange) (protocol.FrameInfo, bool) {
	focuses := make([]protocol.TextRange, 0, len(frames))
	for _, f := range frames {
		if f.Focus != nil {
			focuses = append(focuses, *f.Focus)
		}
	}
	best, ok := SmallestEnclosing(focuses, pos)
	if !ok {
		return protocol.FrameInfo{}, false
	}
	for _, f := range frames {
		if f.Focus != nil && *f.Focus == best {
			return f, true
		}
	}
	return protocol.FrameInfo{}, false
}

// StackFromMessage reads the "stack" list of FrameInfo records that
// debugger responses carry.
func StackFromMessage(msg *protocol.Record) ([]protocol.FrameInfo, error) {
	list, err := msg.GetList("stack")
	if err != nil {
		return nil, err
	}
	frames := make([]protocol.FrameInfo, 0, len(list))
	for i, v := range list {
		rec, ok := v.(*protocol.Record)
		if !ok {
			return nil, fmt.Errorf("stack[%d]: not a record", i)
		}
		f, err := protocol.FrameInfoFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("stack[%d]: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// FramesInFile returns the frames whose filename is the same file as path.
func FramesInFile(frames []protocol.FrameInfo, path string) []protocol.FrameInfo {
	var out []protocol.FrameInfo
	for _, f := range frames {
		if samePathFn(f.Filename, path) {
			out = append(out, f)
		}
	}
	return out
}

// UserFrames returns the frames whose file lies inside dir.
func UserFrames(frames []protocol.FrameInfo, dir string) []protocol.FrameInfo {
	var out []protocol.FrameInfo
	for _, f := range frames {
		if pathStartsWithFn(f.Filename, dir) {
			out = append(out, f)
		}
	}
	return out
}

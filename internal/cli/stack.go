package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/R3defined/thonny/internal/config"
	"github.com/R3defined/thonny/internal/frontend"
	"github.com/R3defined/thonny/internal/protocol"
)

type stackArgs struct {
	dir  string
	file string
	at   *protocol.TextRange
}

func runStack(cfg *config.Config, args []string) int {
	sa, err := parseStackArgs(args)
	if err != nil {
		fmt.Fprintf(rootStderr, "thonny: %v\n", err)
		return ExitUsageErr
	}

	return withSession(cfg, func(ctx context.Context, r *frontend.Runner) int {
		frames, err := r.Stack(ctx)
		if err != nil {
			fmt.Fprintf(rootStderr, "thonny: %v\n", err)
			if protocol.IsUserError(err) {
				return ExitFalse
			}
			return ExitInternal
		}

		if sa.dir != "" {
			frames = frontend.UserFrames(frames, sa.dir)
		}
		if sa.file != "" {
			frames = frontend.FramesInFile(frames, sa.file)
		}
		if sa.at != nil {
			f, ok := frontend.FrameAt(frames, *sa.at)
			if !ok {
				fmt.Fprintf(rootStderr, "thonny: no frame is focused at %s\n", sa.at.StartMarker())
				return ExitFalse
			}
			frames = []protocol.FrameInfo{f}
		}

		if len(frames) == 0 {
			fmt.Fprintln(rootStderr, "thonny: no matching frames")
			return ExitFalse
		}
		for _, f := range frames {
			fmt.Fprintln(rootStdout, f.Description())
		}
		return ExitOK
	})
}

func parseStackArgs(args []string) (stackArgs, error) {
	var sa stackArgs
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		switch name {
		case "--dir", "--file", "--at":
		default:
			return stackArgs{}, fmt.Errorf("unsupported argument for stack: %s", args[i])
		}
		if !hasValue {
			if i+1 >= len(args) {
				return stackArgs{}, fmt.Errorf("missing value for %s", name)
			}
			i++
			value = args[i]
		}
		if value == "" {
			return stackArgs{}, fmt.Errorf("%s must not be empty", name)
		}

		switch name {
		case "--dir":
			sa.dir = value
		case "--file":
			sa.file = value
		case "--at":
			pos, err := parsePosition(value)
			if err != nil {
				return stackArgs{}, err
			}
			sa.at = &pos
		}
	}
	return sa, nil
}

// parsePosition reads "LINE.COL" as an empty range at that position.
func parsePosition(s string) (protocol.TextRange, error) {
	lineStr, colStr, ok := strings.Cut(s, ".")
	if !ok {
		colStr = "0"
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return protocol.TextRange{}, fmt.Errorf("invalid position %q: want LINE.COL", s)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil {
		return protocol.TextRange{}, fmt.Errorf("invalid position %q: want LINE.COL", s)
	}
	pos, err := protocol.NewTextRange(line, col, line, col)
	if err != nil {
		return protocol.TextRange{}, fmt.Errorf("invalid position %q: %w", s, err)
	}
	return pos, nil
}

package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/R3defined/thonny/internal/config"
	"github.com/R3defined/thonny/internal/frontend"
	"github.com/R3defined/thonny/internal/paths"
	"github.com/R3defined/thonny/internal/protocol"
)

func runGlobals(cfg *config.Config, args []string) int {
	module, err := parseGlobalsArgs(args)
	if err != nil {
		fmt.Fprintf(rootStderr, "thonny: %v\n", err)
		return ExitUsageErr
	}
	return inline(cfg, protocol.NewInlineCommand("get_globals", protocol.F("module_name", module)), func(resp *protocol.Record) {
		if globals, err := resp.GetDict("globals"); err == nil {
			writeVariables(globals, "")
		}
	})
}

func runFrame(cfg *config.Config, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(rootStderr, "Usage: thonny frame <id>")
		return ExitUsageErr
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(rootStderr, "thonny: invalid frame id %q\n", args[0])
		return ExitUsageErr
	}
	return inline(cfg, protocol.NewInlineCommand("get_frame_info", protocol.F("frame_id", id)), func(resp *protocol.Record) {
		if rec, err := resp.GetRecord("frame"); err == nil {
			if f, err := protocol.FrameInfoFromRecord(rec); err == nil {
				fmt.Fprintln(rootStdout, f.Description())
			}
		}
		for _, section := range []string{"locals", "globals"} {
			if d, err := resp.GetDict(section); err == nil {
				fmt.Fprintf(rootStdout, "%s:\n", section)
				writeVariables(d, "  ")
			}
		}
	})
}

// inline sends one inline command and prints its response with show.
func inline(cfg *config.Config, cmd *protocol.Record, show func(*protocol.Record)) int {
	return withSession(cfg, func(ctx context.Context, r *frontend.Runner) int {
		resp, err := r.Inline(ctx, cmd)
		if err != nil {
			fmt.Fprintf(rootStderr, "thonny: %v\n", err)
			return ExitInternal
		}
		return writeResponse(resp, show)
	})
}

func withSession(cfg *config.Config, fn func(ctx context.Context, r *frontend.Runner) int) int {
	r, cleanup, err := session(cfg)
	if err != nil {
		fmt.Fprintf(rootStderr, "thonny: %v\n", err)
		return ExitInternal
	}
	defer cleanup()

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Backend.Timeout())
	defer cancel()
	return fn(ctx, r)
}

func writeResponse(resp *protocol.Record, show func(*protocol.Record)) int {
	if msg, ok := resp.Lookup("error", nil).(string); ok {
		fmt.Fprintf(rootStderr, "thonny: %s\n", msg)
		if internal, _ := resp.Lookup("internal", false).(bool); internal {
			return ExitInternal
		}
		return ExitFalse
	}
	show(resp)
	return ExitOK
}

func writeVariables(d *protocol.Dict, indent string) {
	lines := make([]string, 0, d.Len())
	for _, e := range d.Entries() {
		lines = append(lines, fmt.Sprintf("%s%v = %v", indent, e.Key, e.Value))
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(rootStdout, l)
	}
}

func parseGlobalsArgs(args []string) (string, error) {
	module := "__main__"
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--module" || arg == "-m":
			if i+1 >= len(args) {
				return "", fmt.Errorf("missing value for %s", arg)
			}
			i++
			module = args[i]
		case strings.HasPrefix(arg, "--module="):
			module = strings.TrimPrefix(arg, "--module=")
		default:
			return "", fmt.Errorf("unsupported argument for globals: %s", arg)
		}
	}
	if module == "" {
		return "", fmt.Errorf("module name must not be empty")
	}
	return module, nil
}

func parseServeArgs(args []string) (string, error) {
	socket := paths.SocketPath()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--socket":
			if i+1 >= len(args) {
				return "", fmt.Errorf("missing value for --socket")
			}
			i++
			socket = args[i]
		case strings.HasPrefix(arg, "--socket="):
			socket = strings.TrimPrefix(arg, "--socket=")
		default:
			return "", fmt.Errorf("unsupported argument for serve: %s", arg)
		}
	}
	return socket, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/R3defined/thonny/internal/backend"
	"github.com/R3defined/thonny/internal/config"
	"github.com/R3defined/thonny/internal/frontend"
	"github.com/R3defined/thonny/internal/logging"
	"github.com/R3defined/thonny/internal/mcpbridge"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFalse    = 1 // negative answer or error reported by the back-end
	ExitUsageErr = 2
	ExitInternal = 3
)

var (
	loadConfigFn           = config.Load
	connectFn              = frontend.Connect
	runBackendFn           = backend.Run
	serveMCPFn             = mcpbridge.Serve
	newLoggerFn            = logging.New
	rootStdin    io.Reader = os.Stdin
)

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	if handled, code := handleRootFlags(args); handled {
		return code
	}
	if len(args) == 0 {
		printRootHelp(rootStderr)
		return ExitUsageErr
	}

	switch args[0] {
	case "wire":
		return runWire(args[1:])
	case "path":
		return runPath(args[1:])
	case "config":
		return runConfig(args[1:])
	}

	cfg, err := loadConfigFn()
	if err != nil {
		fmt.Fprintf(rootStderr, "thonny: %v\n", err)
		return ExitInternal
	}
	if verr := config.Validate(cfg); verr != nil {
		fmt.Fprintf(rootStderr, "thonny: invalid config: %v\n", verr)
		return ExitUsageErr
	}

	switch args[0] {
	case "globals":
		return runGlobals(cfg, args[1:])
	case "frame":
		return runFrame(cfg, args[1:])
	case "stack":
		return runStack(cfg, args[1:])
	case "mcp":
		return runMCP(cfg, args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(rootStderr, "thonny: unknown command: %s\n", args[0])
		printRootHelp(rootStderr)
		return ExitUsageErr
	}
}

// session connects to the configured back-end. The returned cleanup closes
// the runner and the log file.
func session(cfg *config.Config) (*frontend.Runner, func(), error) {
	logger, err := newLoggerFn(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File, Output: rootStderr})
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout())
	defer cancel()
	r, err := connectFn(ctx, cfg, logger)
	if err != nil {
		logger.Close()
		return nil, nil, err
	}
	return r, func() {
		r.Close()
		logger.Close()
	}, nil
}

func runMCP(cfg *config.Config, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(rootStderr, "Usage: thonny mcp")
		return ExitUsageErr
	}
	r, cleanup, err := session(cfg)
	if err != nil {
		fmt.Fprintf(rootStderr, "thonny: %v\n", err)
		return ExitInternal
	}
	defer cleanup()

	s := mcpbridge.NewServer(r, buildVersion, cfg.Backend.Timeout())
	if err := serveMCPFn(s); err != nil {
		fmt.Fprintf(rootStderr, "thonny: mcp: %v\n", err)
		return ExitInternal
	}
	return ExitOK
}

func runServe(args []string) int {
	socket, err := parseServeArgs(args)
	if err != nil {
		fmt.Fprintf(rootStderr, "thonny: %v\n", err)
		return ExitUsageErr
	}
	if err := runBackendFn([]string{"--listen", socket}); err != nil {
		fmt.Fprintf(rootStderr, "thonny: serve: %v\n", err)
		return ExitInternal
	}
	return ExitOK
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

package backend

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/R3defined/thonny/internal/channel"
	"github.com/R3defined/thonny/internal/config"
	"github.com/R3defined/thonny/internal/logging"
	"github.com/R3defined/thonny/internal/paths"
)

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// Run starts the back-end process. Called when argv[1] == "__backend".
// Without --listen it serves a single session on stdin/stdout.
func Run(args []string) error {
	fs := flag.NewFlagSet("__backend", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	listen := fs.String("listen", "", "serve sessions on this Unix socket")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing backend flags: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if verr := config.Validate(cfg); verr != nil {
		return fmt.Errorf("invalid config: %w", verr)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logger.Close()
	logger = logger.With("component", "backend", "pid", os.Getpid())

	b := New(logger, NewInspector(), WithWorkdir(cfg.Backend.Workdir))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *listen == "" {
		conn := channel.New(stdin, stdout, nil)
		return b.Serve(ctx, conn)
	}
	return serveSocket(ctx, b, logger, *listen)
}

func serveSocket(ctx context.Context, b *Backend, logger *logging.Logger, socketPath string) error {
	if err := paths.EnsureDir(filepath.Dir(socketPath)); err != nil {
		return fmt.Errorf("creating socket dir: %w", err)
	}

	srv := channel.NewServer(socketPath, func(ctx context.Context, conn *channel.Conn) {
		if err := b.Serve(ctx, conn); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session failed", "error", err)
		}
	})
	srv.OnReject = func(err error) {
		logger.Warn("rejected connection", "error", err)
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	logger.Info("listening", "socket", socketPath)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

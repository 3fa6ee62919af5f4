package frontend

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/R3defined/thonny/internal/channel"
	"github.com/R3defined/thonny/internal/config"
	"github.com/R3defined/thonny/internal/logging"
)

var (
	execCommandFn            = exec.Command
	executableFn             = os.Executable
	backendStderr  io.Writer = os.Stderr
	processTimeout           = 3 * time.Second
)

// Connect attaches to the back-end named by cfg and starts a Runner on it:
// it dials backend.socket when set, otherwise it spawns backend.command
// (this executable by default) with stdio pipes as the channel.
func Connect(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	var conn *channel.Conn
	var err error
	if cfg.Backend.IsSocket() {
		conn, err = channel.Dial(ctx, cfg.Backend.Socket)
	} else {
		conn, err = spawnBackend(cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	r := NewRunner(conn, logger)
	r.Start()
	return r, nil
}

func spawnBackend(bcfg config.BackendConfig) (*channel.Conn, error) {
	cmd, err := newBackendCommand(bcfg)
	if err != nil {
		return nil, err
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating backend stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating backend stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning backend: %w", err)
	}

	return channel.New(stdout, stdin, &process{cmd: cmd, stdin: stdin}), nil
}

func newBackendCommand(bcfg config.BackendConfig) (*exec.Cmd, error) {
	exe := bcfg.Command
	args := bcfg.Args
	if exe == "" {
		self, err := executableFn()
		if err != nil {
			return nil, fmt.Errorf("finding executable: %w", err)
		}
		exe = self
		if len(args) == 0 {
			args = []string{config.BackendArg}
		}
	}

	cmd := execCommandFn(exe, args...)
	cmd.Dir = bcfg.Workdir
	cmd.Stderr = backendStderr
	if len(bcfg.Env) > 0 {
		env := os.Environ()
		for k, v := range bcfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	return cmd, nil
}

// process closes a spawned back-end: closing stdin ends its session, and
// it is killed if it does not exit in time.
type process struct {
	cmd   *exec.Cmd
	stdin io.Closer
}

func (p *process) Close() error {
	_ = p.stdin.Close()

	exited := make(chan error, 1)
	go func() { exited <- p.cmd.Wait() }()

	select {
	case err := <-exited:
		if err != nil {
			return fmt.Errorf("backend exited: %w", err)
		}
		return nil
	case <-time.After(processTimeout):
		_ = p.cmd.Process.Kill()
		<-exited
		return fmt.Errorf("backend did not exit within %s; killed", processTimeout)
	}
}

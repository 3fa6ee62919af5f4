package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	b := cfg.Backend
	if strings.TrimSpace(b.Command) != "" && strings.TrimSpace(b.Socket) != "" {
		errs = append(errs, errors.New("backend: configure either command (spawn) or socket (attach), not both"))
	}
	if b.Socket != "" && !filepath.IsAbs(b.Socket) {
		errs = append(errs, fmt.Errorf("backend.socket: must be an absolute path, got %q", b.Socket))
	}
	if b.Workdir != "" && !filepath.IsAbs(b.Workdir) {
		errs = append(errs, fmt.Errorf("backend.workdir: must be an absolute path, got %q", b.Workdir))
	}
	if b.InlineTimeout != "" {
		d, err := time.ParseDuration(b.InlineTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("backend.inline_timeout: invalid duration %q: %w", b.InlineTimeout, err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("backend.inline_timeout: must be > 0, got %q", b.InlineTimeout))
		}
	}
	for k := range b.Env {
		if k == "" || strings.Contains(k, "=") {
			errs = append(errs, fmt.Errorf("backend.env: invalid variable name %q", k))
		}
	}

	if cfg.Log.Level != "" && !logLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q (want debug, info, warn or error)", cfg.Log.Level))
	}
	return errors.Join(errs...)
}

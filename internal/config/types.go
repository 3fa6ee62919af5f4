package config

import "time"

// Config is the top-level thonny configuration.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Log     LogConfig     `toml:"log"`
}

// BackendConfig says how the front-end reaches a back-end: either by
// spawning Command on stdio pipes or by dialing Socket.
type BackendConfig struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env"`
	Socket  string            `toml:"socket"`
	Workdir string            `toml:"workdir"`

	// InlineTimeout bounds how long an inline query waits for its response.
	InlineTimeout string `toml:"inline_timeout"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

const (
	DefaultLogLevel      = "info"
	DefaultInlineTimeout = 10 * time.Second
	BackendArg           = "__backend"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{Args: []string{BackendArg}},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// IsSocket reports whether the front-end attaches to a listening back-end.
func (b BackendConfig) IsSocket() bool {
	return b.Socket != ""
}

// Timeout returns the parsed inline timeout, or DefaultInlineTimeout when
// unset or invalid. Validate reports invalid values.
func (b BackendConfig) Timeout() time.Duration {
	if b.InlineTimeout == "" {
		return DefaultInlineTimeout
	}
	d, err := time.ParseDuration(b.InlineTimeout)
	if err != nil || d <= 0 {
		return DefaultInlineTimeout
	}
	return d
}

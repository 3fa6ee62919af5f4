package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("LoadFrom() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadFromExpandsEnvValuesAfterParsing(t *testing.T) {
	t.Setenv("LIB_HOME", `/opt/my "lib"`)

	path := writeConfig(t, `
[backend]
command = "python3"
args = ["-m", "thonny.backend"]
env = { PYTHONPATH = "${LIB_HOME}/site" }
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if got, want := cfg.Backend.Env["PYTHONPATH"], `/opt/my "lib"/site`; got != want {
		t.Fatalf("PYTHONPATH = %q, want %q", got, want)
	}
	if got, want := cfg.Backend.Args, []string{"-m", "thonny.backend"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Fatalf("log.level = %q, want default %q", cfg.Log.Level, DefaultLogLevel)
	}
}

func TestLoadFromLeavesUnresolvedPlaceholders(t *testing.T) {
	path := writeConfig(t, `
[log]
file = "${THONNY_TEST_UNSET_VAR}/backend.log"
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got, want := cfg.Log.File, "${THONNY_TEST_UNSET_VAR}/backend.log"; got != want {
		t.Fatalf("log.file = %q, want %q", got, want)
	}
}

func TestLoadFromRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[backend]
comand = "python3"
`)
	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("LoadFrom() error = nil, want unknown key error")
	}
	if !strings.Contains(err.Error(), "backend.comand") {
		t.Fatalf("LoadFrom() error = %v, want mention of backend.comand", err)
	}
}

func TestLoadFromRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[backend\n")
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom() error = nil, want parse error")
	}
}

func TestSaveToRoundTripsAndIsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Backend.Socket = "/run/user/1000/thonny/backend.sock"
	cfg.Backend.InlineTimeout = "3s"
	cfg.Log.Level = "debug"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Fatalf("config mode = %o, want %o", got, 0o600)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Backend.Socket != cfg.Backend.Socket || loaded.Backend.InlineTimeout != "3s" || loaded.Log.Level != "debug" {
		t.Fatalf("round trip = %+v, want %+v", loaded, cfg)
	}
	if !reflect.DeepEqual(loaded.Backend.Args, []string{BackendArg}) {
		t.Fatalf("round trip args = %v, want [%s]", loaded.Backend.Args, BackendArg)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("config dir has %d entries, want only config.toml", len(entries))
	}
}

func TestSaveToSyncsBeforeReplacing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	old := syncFileFn
	var synced []string
	syncFileFn = func(f *os.File) error {
		synced = append(synced, f.Name())
		return errors.New("disk full")
	}
	defer func() { syncFileFn = old }()

	err := SaveTo(path, Default())
	if err == nil || !strings.Contains(err.Error(), "syncing temp config file") {
		t.Fatalf("SaveTo() error = %v, want sync failure", err)
	}
	if len(synced) != 1 || filepath.Dir(synced[0]) != dir {
		t.Fatalf("synced = %v, want one temp file in %s", synced, dir)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Log.Level != "warn" {
		t.Fatalf("existing config replaced after failed sync: level = %q", loaded.Log.Level)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("config dir has %d entries, want the temp file removed", len(entries))
	}
}

func TestBackendTimeout(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", DefaultInlineTimeout},
		{"250ms", 250 * time.Millisecond},
		{"nonsense", DefaultInlineTimeout},
		{"-1s", DefaultInlineTimeout},
	}
	for _, tt := range tests {
		b := BackendConfig{InlineTimeout: tt.raw}
		if got := b.Timeout(); got != tt.want {
			t.Errorf("Timeout(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

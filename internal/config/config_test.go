package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mferrera/ert/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Storage.Backend != config.BackendFS {
		t.Fatalf("unexpected default backend %q", cfg.Storage.Backend)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		`[workspace]`,
		`name = "exp1"`,
		`root = "` + dir + `"`,
		`[storage]`,
		`backend = "memory"`,
		`[transmit]`,
		`max_concurrency = 4`,
		`[logging]`,
		`level = "debug"`,
		`format = "json"`,
		`dir = "` + filepath.Join(dir, "logs") + `"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workspace.Name != "exp1" {
		t.Fatalf("unexpected workspace name %q", cfg.Workspace.Name)
	}
	if cfg.Storage.Backend != config.BackendMemory {
		t.Fatalf("unexpected backend %q", cfg.Storage.Backend)
	}
	if cfg.Transmit.MaxConcurrency != 4 {
		t.Fatalf("unexpected concurrency %d", cfg.Transmit.MaxConcurrency)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"tape\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown backend to fail validation")
	}
}

func TestSQLiteDatabasePathDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[workspace]\nname = \"exp1\"\nroot = \"" + dir + "\"\n[storage]\nbackend = \"sqlite\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "records.db") {
		t.Fatalf("unexpected database path %q", cfg.Storage.DatabasePath)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := config.ExpandPath("~/records")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "records") {
		t.Fatalf("unexpected expansion %q", got)
	}
}

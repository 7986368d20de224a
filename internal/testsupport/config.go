// Package testsupport provides shared builders for tests: temp-directory
// configs, stores over every backend kind, and file fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/mferrera/ert/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. The memory backend is the default so tests stay hermetic.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Workspace.Name = "test-workspace"
	cfg.Workspace.Root = filepath.Join(base, "workspace")
	cfg.Storage.Backend = config.BackendMemory
	cfg.Storage.FSRoot = filepath.Join(base, "storage")
	cfg.Storage.DatabasePath = filepath.Join(base, "records.db")
	cfg.Logging.Dir = filepath.Join(base, "logs")
	cfg.Transmit.MaxConcurrency = 4

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBackend overrides the storage backend kind on the test config.
func WithBackend(kind string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.Backend = kind
	}
}

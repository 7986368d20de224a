package testsupport

import (
	"testing"

	"github.com/mferrera/ert/internal/config"
	"github.com/mferrera/ert/internal/logging"
	"github.com/mferrera/ert/internal/storage"
)

// MustOpenStore opens a store for the config's backend and closes it when
// the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()
	store, err := storage.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenMemoryStore opens a store over a fresh memory backend and
// returns both so tests can inject failures.
func MustOpenMemoryStore(t testing.TB) (*storage.Store, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	store := storage.NewStore(backend, logging.NewNop())
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, backend
}

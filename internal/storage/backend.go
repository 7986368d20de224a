package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/mferrera/ert/internal/config"
)

var (
	// ErrNotFound marks a record, metadata document, or experiment that
	// was never stored.
	ErrNotFound = errors.New("not found in storage")
	// ErrExperimentExists marks an attempt to initialize an experiment
	// twice.
	ErrExperimentExists = errors.New("experiment already initialized")
)

// Key addresses the byte payload of one stored record.
type Key struct {
	Experiment string
	Name       string
	Member     int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Experiment, k.Name, k.Member)
}

// objectPath is the storage-relative path for the record bytes.
func (k Key) objectPath() string {
	return path.Join("experiments", k.Experiment, k.Name, fmt.Sprintf("%d", k.Member))
}

// Meta returns the metadata key covering this record's collection.
func (k Key) Meta() MetaKey {
	return MetaKey{Experiment: k.Experiment, Name: k.Name}
}

// MetaKey addresses the metadata document of one record collection.
type MetaKey struct {
	Experiment string
	Name       string
}

func (k MetaKey) String() string {
	return k.Experiment + "/" + k.Name
}

func (k MetaKey) metaPath() string {
	return path.Join("experiments", k.Experiment, k.Name+metaSuffix)
}

const metaSuffix = ".meta.json"

// experimentMetaName is the reserved record name under which an
// experiment's registration document is stored. Record names may not start
// with '@' so this can never collide.
const experimentMetaName = "@experiment"

// ValidRecordName reports whether a name may be used for a record.
func ValidRecordName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("record name must not be empty")
	}
	if strings.HasPrefix(name, "@") {
		return fmt.Errorf("record name %q must not start with '@'", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("record name %q must not contain path separators", name)
	}
	return nil
}

// Metadata describes a stored record collection separately from its bytes.
// A metadata document only ever exists after at least one member's bytes
// are durable.
type Metadata struct {
	Mime          string    `json:"mime,omitempty"`
	IsDirectory   bool      `json:"is_directory,omitempty"`
	EnsembleSize  int       `json:"ensemble_size,omitempty"`
	Members       []int     `json:"members,omitempty"`
	Source        string    `json:"source,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	TransmittedAt time.Time `json:"transmitted_at"`

	// Experiment registration fields, only present on the reserved
	// experiment document.
	Parameters []string `json:"parameters,omitempty"`
	Responses  []string `json:"responses,omitempty"`
}

// HasMember reports whether the member index is recorded as transmitted.
func (m Metadata) HasMember(member int) bool {
	for _, id := range m.Members {
		if id == member {
			return true
		}
	}
	return false
}

// Backend is the narrow storage boundary the transmitter and resolver are
// built on. Implementations must be safe for concurrent use; writes to
// distinct keys never interleave, and a Put is atomic from a reader's
// perspective (a concurrent Get observes the old or the new payload in
// full, never a mix).
type Backend interface {
	// Put durably stores record bytes under key, overwriting any prior
	// payload (last-write-wins).
	Put(ctx context.Context, key Key, data []byte) error
	// Get loads record bytes, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)
	// URL resolves key to an externally addressable location without
	// loading the payload, or ErrNotFound if nothing is stored.
	URL(ctx context.Context, key Key) (string, error)
	// PutMetadata overwrites the metadata document for key.
	PutMetadata(ctx context.Context, key MetaKey, meta Metadata) error
	// GetMetadata loads the metadata document, or ErrNotFound.
	GetMetadata(ctx context.Context, key MetaKey) (Metadata, error)
	// UpdateMetadata atomically applies update to the current document
	// (the zero Metadata when none exists) and stores the result. Used
	// where concurrent writers merge into one (experiment, name) key.
	UpdateMetadata(ctx context.Context, key MetaKey, update func(Metadata) Metadata) error
	// ListMeta enumerates metadata keys under one experiment, or under
	// all experiments when experiment is empty.
	ListMeta(ctx context.Context, experiment string) ([]MetaKey, error)
	// Delete removes every record payload and metadata document under
	// the experiment prefix. Deleting an absent prefix is not an error.
	Delete(ctx context.Context, experiment string) error
	// Close releases driver resources.
	Close() error
}

// OpenBackend constructs the configured Backend driver.
func OpenBackend(cfg *config.Config) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendFS:
		return NewFSBackend(cfg.Storage.FSRoot)
	case config.BackendS3:
		return NewS3Backend(cfg.Storage.S3)
	case config.BackendSQLite:
		return NewSQLiteBackend(cfg.Storage.DatabasePath)
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

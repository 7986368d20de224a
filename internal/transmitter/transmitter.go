// Package transmitter implements the record transmission capability: a
// transmitter binds one (experiment, name, member) storage slot and can
// persist a record into it, then later resolve the slot to a URL or load
// the record back. Transmitters for distinct slots never contend; calling
// Transmit twice on the same slot overwrites deterministically.
package transmitter

import (
	"context"
	"errors"
	"fmt"

	"github.com/mferrera/ert/internal/record"
	"github.com/mferrera/ert/internal/storage"
)

// ErrNotTransmitted marks a resolve attempt before any successful
// transmit.
var ErrNotTransmitted = errors.New("record not transmitted")

// RecordTransmitter persists one record durably and resolves it back.
type RecordTransmitter interface {
	// Transmit stores the record bytes. Safe to call again for the same
	// slot: the write is last-write-wins and atomic from a reader's
	// perspective.
	Transmit(ctx context.Context, rec *record.Record) error
	// Load re-materializes the transmitted record.
	Load(ctx context.Context) (*record.Record, error)
	// URL resolves the transmitted record to an addressable location.
	URL(ctx context.Context) (string, error)
}

// StorageRecordTransmitter writes records through a storage backend. It is
// stateless between calls apart from the backend handle and the
// transmitted flag guarding resolution.
type StorageRecordTransmitter struct {
	backend storage.Backend
	key     storage.Key

	transmitted bool
	mime        string
	isDirectory bool
}

var _ RecordTransmitter = (*StorageRecordTransmitter)(nil)

// New binds a fresh transmitter to one storage slot. Resolution fails with
// ErrNotTransmitted until Transmit succeeds.
func New(backend storage.Backend, key storage.Key) *StorageRecordTransmitter {
	return &StorageRecordTransmitter{backend: backend, key: key}
}

// ForStoredRecord rebuilds transmitters for a record that is already
// durable, one per transmitted member, in member order. The returned
// transmitters resolve immediately.
func ForStoredRecord(ctx context.Context, backend storage.Backend, experiment, name string) ([]*StorageRecordTransmitter, error) {
	meta, err := backend.GetMetadata(ctx, storage.MetaKey{Experiment: experiment, Name: name})
	if err != nil {
		return nil, err
	}
	transmitters := make([]*StorageRecordTransmitter, 0, len(meta.Members))
	for _, member := range meta.Members {
		transmitters = append(transmitters, &StorageRecordTransmitter{
			backend:     backend,
			key:         storage.Key{Experiment: experiment, Name: name, Member: member},
			transmitted: true,
			mime:        meta.Mime,
			isDirectory: meta.IsDirectory,
		})
	}
	return transmitters, nil
}

// Key reports the storage slot this transmitter is bound to.
func (t *StorageRecordTransmitter) Key() storage.Key { return t.key }

// Transmitted reports whether a transmit has succeeded on this slot.
func (t *StorageRecordTransmitter) Transmitted() bool { return t.transmitted }

func (t *StorageRecordTransmitter) Transmit(ctx context.Context, rec *record.Record) error {
	data, err := record.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", t.key, err)
	}
	if err := t.backend.Put(ctx, t.key, data); err != nil {
		return fmt.Errorf("transmit record %s: %w", t.key, err)
	}
	t.transmitted = true
	t.mime = rec.Mime()
	t.isDirectory = rec.IsDirectory()
	return nil
}

func (t *StorageRecordTransmitter) Load(ctx context.Context) (*record.Record, error) {
	if !t.transmitted {
		return nil, fmt.Errorf("%w: %s", ErrNotTransmitted, t.key)
	}
	data, err := t.backend.Get(ctx, t.key)
	if err != nil {
		return nil, err
	}
	if t.isDirectory {
		return record.NewDirectory(data), nil
	}
	rec, err := record.Decode(data, t.mime)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", t.key, err)
	}
	return rec, nil
}

func (t *StorageRecordTransmitter) URL(ctx context.Context) (string, error) {
	if !t.transmitted {
		return "", fmt.Errorf("%w: %s", ErrNotTransmitted, t.key)
	}
	return t.backend.URL(ctx, t.key)
}

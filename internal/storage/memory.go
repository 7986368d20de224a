package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryBackend keeps records and metadata in process memory. It exists
// for tests and throwaway runs; payloads are copied on the way in and out
// so stored bytes stay immutable. Put failures can be injected per key to
// exercise partial-failure handling.
type MemoryBackend struct {
	mu      sync.RWMutex
	blobs   map[Key][]byte
	meta    map[MetaKey]Metadata
	failPut func(Key) error
}

// NewMemoryBackend builds an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		blobs: make(map[Key][]byte),
		meta:  make(map[MetaKey]Metadata),
	}
}

// FailPuts installs a hook consulted before every Put; a non-nil return
// rejects that write. Passing nil clears the hook.
func (b *MemoryBackend) FailPuts(hook func(Key) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPut = hook
}

func (b *MemoryBackend) Put(ctx context.Context, key Key, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	hook := b.failPut
	b.mu.RUnlock()
	// The hook runs outside the lock so a blocking hook stalls only its
	// own key, mirroring real backend behavior.
	if hook != nil {
		if err := hook(key); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = slices.Clone(data)
	return nil
}

func (b *MemoryBackend) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, key)
	}
	return slices.Clone(data), nil
}

func (b *MemoryBackend) URL(ctx context.Context, key Key) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.blobs[key]; !ok {
		return "", fmt.Errorf("%w: record %s", ErrNotFound, key)
	}
	return "mem://" + key.objectPath(), nil
}

func (b *MemoryBackend) PutMetadata(ctx context.Context, key MetaKey, meta Metadata) error {
	return b.UpdateMetadata(ctx, key, func(Metadata) Metadata { return meta })
}

func (b *MemoryBackend) GetMetadata(ctx context.Context, key MetaKey) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	meta, ok := b.meta[key]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: metadata %s", ErrNotFound, key)
	}
	return meta, nil
}

func (b *MemoryBackend) UpdateMetadata(ctx context.Context, key MetaKey, update func(Metadata) Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meta[key] = update(b.meta[key])
	return nil
}

func (b *MemoryBackend) ListMeta(ctx context.Context, experiment string) ([]MetaKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []MetaKey
	for key := range b.meta {
		if experiment == "" || key.Experiment == experiment {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, c MetaKey) int {
		if a.Experiment != c.Experiment {
			if a.Experiment < c.Experiment {
				return -1
			}
			return 1
		}
		if a.Name < c.Name {
			return -1
		}
		if a.Name > c.Name {
			return 1
		}
		return 0
	})
	return keys, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, experiment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for key := range b.blobs {
		if key.Experiment == experiment {
			delete(b.blobs, key)
		}
	}
	for key := range b.meta {
		if key.Experiment == experiment {
			delete(b.meta, key)
		}
	}
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

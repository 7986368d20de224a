package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// FSBackend stores records under a local directory tree. Record bytes are
// written to a temporary file and renamed into place so readers observe
// either the old or the new payload in full. Metadata upserts take a
// cross-process flock scoped to the (experiment, name) key.
type FSBackend struct {
	root string
}

// NewFSBackend opens a filesystem backend rooted at root, creating it when
// absent.
func NewFSBackend(root string) (*FSBackend, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("fs backend root must be set")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create fs backend root: %w", err)
	}
	return &FSBackend{root: root}, nil
}

func (b *FSBackend) objectFile(key Key) string {
	return filepath.Join(b.root, filepath.FromSlash(key.objectPath()))
}

func (b *FSBackend) metaFile(key MetaKey) string {
	return filepath.Join(b.root, filepath.FromSlash(key.metaPath()))
}

// lockFile lives under a dedicated locks/ subtree so the experiments/
// tree holds only record payloads and metadata documents.
func (b *FSBackend) lockFile(key MetaKey) string {
	return filepath.Join(b.root, "locks", key.Experiment, key.Name+".lock")
}

func (b *FSBackend) Put(ctx context.Context, key Key, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := b.objectFile(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}
	return atomicWrite(target, data)
}

func (b *FSBackend) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.objectFile(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: record %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read record %s: %w", key, err)
	}
	return data, nil
}

func (b *FSBackend) URL(ctx context.Context, key Key) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := b.objectFile(key)
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: record %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("stat record %s: %w", key, err)
	}
	return "file://" + filepath.ToSlash(target), nil
}

func (b *FSBackend) PutMetadata(ctx context.Context, key MetaKey, meta Metadata) error {
	return b.UpdateMetadata(ctx, key, func(Metadata) Metadata { return meta })
}

func (b *FSBackend) GetMetadata(ctx context.Context, key MetaKey) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	data, err := os.ReadFile(b.metaFile(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, fmt.Errorf("%w: metadata %s", ErrNotFound, key)
		}
		return Metadata{}, fmt.Errorf("read metadata %s: %w", key, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata %s: %w", key, err)
	}
	return meta, nil
}

func (b *FSBackend) UpdateMetadata(ctx context.Context, key MetaKey, update func(Metadata) Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := b.metaFile(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	lockPath := b.lockFile(key)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock metadata %s: %w", key, err)
	}
	if !locked {
		return fmt.Errorf("lock metadata %s: not acquired", key)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	var current Metadata
	data, err := os.ReadFile(target)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("decode metadata %s: %w", key, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// First write for this key.
	default:
		return fmt.Errorf("read metadata %s: %w", key, err)
	}

	next, err := json.Marshal(update(current))
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", key, err)
	}
	return atomicWrite(target, next)
}

func (b *FSBackend) ListMeta(ctx context.Context, experiment string) ([]MetaKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(b.root, "experiments")
	if experiment != "" {
		base = filepath.Join(base, experiment)
	}

	var keys []MetaKey
	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(filepath.Join(b.root, "experiments"), path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 2 {
			return nil
		}
		keys = append(keys, MetaKey{
			Experiment: parts[0],
			Name:       strings.TrimSuffix(parts[1], metaSuffix),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	return keys, nil
}

func (b *FSBackend) Delete(ctx context.Context, experiment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(experiment) == "" {
		return errors.New("delete requires an experiment prefix")
	}
	target := filepath.Join(b.root, "experiments", experiment)
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("delete experiment %q: %w", experiment, err)
	}
	if err := os.RemoveAll(filepath.Join(b.root, "locks", experiment)); err != nil {
		return fmt.Errorf("delete experiment locks %q: %w", experiment, err)
	}
	return nil
}

func (b *FSBackend) Close() error { return nil }

const lockRetryDelay = 25 * time.Millisecond

func atomicWrite(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %q: %w", target, err)
	}
	return nil
}

package record

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadCollectionFromFile reads a file or directory from disk into a size-1
// collection. Loading is all-or-nothing: any failure leaves no partial
// result behind.
func LoadCollectionFromFile(path, mime string, isDirectory bool) (*Collection, error) {
	rec, err := LoadFromFile(path, mime, isDirectory)
	if err != nil {
		return nil, err
	}
	return NewSingletonCollection(rec)
}

// LoadFromFile reads one file or directory from disk into a record.
func LoadFromFile(path, mime string, isDirectory bool) (*Record, error) {
	if !isDirectory && !SupportedMime(mime) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMime, mime)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return nil, fmt.Errorf("inspect %q: %w", path, err)
	}
	if info.IsDir() != isDirectory {
		return nil, fmt.Errorf("%w: %q is_directory=%t but path is_dir=%t",
			ErrDirectoryMismatch, path, isDirectory, info.IsDir())
	}

	if isDirectory {
		archive, err := ArchiveDirectory(path)
		if err != nil {
			return nil, err
		}
		return NewDirectory(archive), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	rec, err := Decode(data, mime)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}
	return rec, nil
}

// SaveToFile writes a record back to disk, the inverse of LoadFromFile.
// Directory records extract their archived tree under path; other records
// write their encoded payload as a single file.
func SaveToFile(rec *Record, path string) error {
	if rec.IsDirectory() {
		return ExtractDirectory(rec.Blob(), path)
	}
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure parent of %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

package record

import "errors"

var (
	// ErrNotFound marks a load path that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnsupportedMime marks a mime type with no registered codec.
	ErrUnsupportedMime = errors.New("unsupported record mime type")
	// ErrDirectoryMismatch marks a directory flag that disagrees with the
	// actual path type on disk.
	ErrDirectoryMismatch = errors.New("record directory flag mismatch")
)

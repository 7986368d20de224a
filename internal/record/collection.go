package record

import (
	"errors"
	"fmt"
)

// Collection is the ordered set of records for one logical quantity across
// an ensemble. The slot index is the ensemble member id and the size is
// fixed at construction; re-sampling builds a new collection rather than
// mutating one in place.
type Collection struct {
	records []*Record
}

// NewCollection builds a collection from per-member records. All members
// must share the same mime type and directory designation.
func NewCollection(records []*Record) (*Collection, error) {
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("collection member %d is nil", i)
		}
		if rec.Mime() != records[0].Mime() {
			return nil, fmt.Errorf("collection member %d mime %q differs from %q", i, rec.Mime(), records[0].Mime())
		}
		if rec.IsDirectory() != records[0].IsDirectory() {
			return nil, errors.New("collection mixes directory and non-directory records")
		}
	}
	c := &Collection{records: make([]*Record, len(records))}
	copy(c.records, records)
	return c, nil
}

// NewSingletonCollection wraps one record as a size-1 collection.
func NewSingletonCollection(rec *Record) (*Collection, error) {
	return NewCollection([]*Record{rec})
}

// Len reports the ensemble size.
func (c *Collection) Len() int { return len(c.records) }

// Record returns the record in the given member slot.
func (c *Collection) Record(member int) (*Record, error) {
	if member < 0 || member >= len(c.records) {
		return nil, fmt.Errorf("collection has no member %d (size %d)", member, len(c.records))
	}
	return c.records[member], nil
}

// Records returns the members in index order. The slice is a copy; the
// records themselves are immutable and shared.
func (c *Collection) Records() []*Record {
	out := make([]*Record, len(c.records))
	copy(out, c.records)
	return out
}

// Mime reports the mime type shared by all members. Empty collections
// report an empty mime.
func (c *Collection) Mime() string {
	if len(c.records) == 0 {
		return ""
	}
	return c.records[0].Mime()
}

// IsDirectory reports whether the members carry archived directories.
func (c *Collection) IsDirectory() bool {
	return len(c.records) > 0 && c.records[0].IsDirectory()
}

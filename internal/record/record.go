package record

import (
	"fmt"
	"math"
	"slices"
)

// Kind enumerates the payload shapes a record can carry.
type Kind int

const (
	// KindScalar is a single numerical value.
	KindScalar Kind = iota
	// KindVector is an ordered sequence of numerical values.
	KindVector
	// KindBlob is an opaque byte payload.
	KindBlob
	// KindDirectory is a blob holding an archived directory tree.
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindBlob:
		return "blob"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Record is one immutable typed value belonging to one ensemble member.
// Construct records through the New* functions; the zero value is not a
// valid record.
type Record struct {
	kind   Kind
	scalar float64
	vector []float64
	blob   []byte
	mime   string
}

// NewScalar builds a scalar record carried as MimeJSON.
func NewScalar(value float64) *Record {
	return &Record{kind: KindScalar, scalar: value, mime: MimeJSON}
}

// NewVector builds a vector record carried as MimeJSON. The values are
// copied so the caller cannot mutate the record afterwards.
func NewVector(values []float64) *Record {
	return &Record{kind: KindVector, vector: slices.Clone(values), mime: MimeJSON}
}

// NewBlob builds an opaque record with the given mime type.
func NewBlob(data []byte, mime string) *Record {
	return &Record{kind: KindBlob, blob: slices.Clone(data), mime: mime}
}

// NewDirectory builds a record holding an archived directory tree. The
// payload is the archive produced by ArchiveDirectory.
func NewDirectory(archive []byte) *Record {
	return &Record{kind: KindDirectory, blob: slices.Clone(archive), mime: MimeOctetStream}
}

// Kind reports the payload shape.
func (r *Record) Kind() Kind { return r.kind }

// Mime reports the content type designation.
func (r *Record) Mime() string { return r.mime }

// IsDirectory reports whether the record carries an archived directory.
func (r *Record) IsDirectory() bool { return r.kind == KindDirectory }

// Scalar returns the scalar payload; valid only for KindScalar.
func (r *Record) Scalar() float64 { return r.scalar }

// Vector returns a copy of the vector payload; valid only for KindVector.
func (r *Record) Vector() []float64 { return slices.Clone(r.vector) }

// Blob returns a copy of the byte payload; valid for KindBlob and
// KindDirectory.
func (r *Record) Blob() []byte { return slices.Clone(r.blob) }

// Equal reports structural equality: same kind, mime, and payload.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.kind != other.kind || r.mime != other.mime {
		return false
	}
	switch r.kind {
	case KindScalar:
		return sameFloat(r.scalar, other.scalar)
	case KindVector:
		return slices.EqualFunc(r.vector, other.vector, sameFloat)
	default:
		return slices.Equal(r.blob, other.blob)
	}
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

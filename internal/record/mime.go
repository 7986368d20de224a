package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mime types with registered codecs. Records loaded from disk must declare
// one of these; anything else fails with ErrUnsupportedMime.
const (
	MimeJSON        = "application/json"
	MimeText        = "text/plain"
	MimeCSV         = "text/csv"
	MimeOctetStream = "application/octet-stream"
)

type codec struct {
	decode func(data []byte) (*Record, error)
	encode func(r *Record) ([]byte, error)
}

var codecs = map[string]codec{
	MimeJSON:        {decode: decodeJSON, encode: encodeJSON},
	MimeText:        {decode: decodeOpaque(MimeText), encode: encodeOpaque},
	MimeCSV:         {decode: decodeCSVMime, encode: encodeOpaque},
	MimeOctetStream: {decode: decodeOpaque(MimeOctetStream), encode: encodeOpaque},
}

// SupportedMime reports whether a codec is registered for the mime type.
func SupportedMime(mime string) bool {
	_, ok := codecs[mime]
	return ok
}

// Decode builds a record from raw bytes according to the mime type.
func Decode(data []byte, mime string) (*Record, error) {
	c, ok := codecs[mime]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMime, mime)
	}
	return c.decode(data)
}

// Encode serializes a record's payload for storage according to its mime
// type. Directory records encode as their archive bytes unchanged.
func Encode(r *Record) ([]byte, error) {
	if r.kind == KindDirectory {
		return r.Blob(), nil
	}
	c, ok := codecs[r.mime]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMime, r.mime)
	}
	return c.encode(r)
}

func decodeJSON(data []byte) (*Record, error) {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		return NewScalar(scalar), nil
	}
	var vector []float64
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, fmt.Errorf("decode json record: %w", err)
	}
	return NewVector(vector), nil
}

func encodeJSON(r *Record) ([]byte, error) {
	switch r.kind {
	case KindScalar:
		return json.Marshal(r.scalar)
	case KindVector:
		return json.Marshal(r.vector)
	default:
		return nil, fmt.Errorf("encode json record: unexpected kind %s", r.kind)
	}
}

func decodeCSVMime(data []byte) (*Record, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(string(data)), func(r rune) bool {
		return r == ',' || r == '\n'
	})
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("decode csv record: %w", err)
		}
		values = append(values, v)
	}
	rec := NewVector(values)
	rec.mime = MimeCSV
	return rec, nil
}

func decodeOpaque(mime string) func(data []byte) (*Record, error) {
	return func(data []byte) (*Record, error) {
		return NewBlob(data, mime), nil
	}
}

func encodeOpaque(r *Record) ([]byte, error) {
	switch r.kind {
	case KindBlob, KindDirectory:
		return r.Blob(), nil
	case KindVector:
		if r.mime == MimeCSV {
			parts := make([]string, len(r.vector))
			for i, v := range r.vector {
				parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			return []byte(strings.Join(parts, ",")), nil
		}
	}
	return nil, fmt.Errorf("encode %s record: unexpected kind %s", r.mime, r.kind)
}

package record_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mferrera/ert/internal/record"
)

func TestLoadCollectionFromFileText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.txt")
	content := "line one\nline two\nline three\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	collection, err := record.LoadCollectionFromFile(path, record.MimeText, false)
	if err != nil {
		t.Fatalf("LoadCollectionFromFile failed: %v", err)
	}
	if collection.Len() != 1 {
		t.Fatalf("expected singleton collection, got size %d", collection.Len())
	}
	rec, err := collection.Record(0)
	if err != nil {
		t.Fatalf("Record(0) failed: %v", err)
	}
	if rec.Mime() != record.MimeText {
		t.Fatalf("unexpected mime %q", rec.Mime())
	}
	if got := string(rec.Blob()); got != content {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestLoadFromFileMissingPath(t *testing.T) {
	_, err := record.LoadFromFile(filepath.Join(t.TempDir(), "absent"), record.MimeText, false)
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadFromFileUnsupportedMime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weird.bin")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := record.LoadFromFile(path, "application/x-mystery", false)
	if !errors.Is(err, record.ErrUnsupportedMime) {
		t.Fatalf("expected ErrUnsupportedMime, got %v", err)
	}
}

func TestLoadFromFileDirectoryMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := record.LoadFromFile(path, record.MimeText, true); !errors.Is(err, record.ErrDirectoryMismatch) {
		t.Fatalf("expected ErrDirectoryMismatch for file, got %v", err)
	}
	if _, err := record.LoadFromFile(dir, record.MimeOctetStream, false); !errors.Is(err, record.ErrDirectoryMismatch) {
		t.Fatalf("expected ErrDirectoryMismatch for directory, got %v", err)
	}
}

func TestDirectoryRecordRoundTrip(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"top.txt":           "top contents",
		"nested/leaf.json":  `[1,2,3]`,
		"nested/other.data": "binary-ish",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	rec, err := record.LoadFromFile(src, record.MimeOctetStream, true)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if !rec.IsDirectory() {
		t.Fatal("expected directory record")
	}

	dest := filepath.Join(t.TempDir(), "restored")
	if err := record.SaveToFile(rec, dest); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	for name, content := range files {
		data, err := os.ReadFile(filepath.Join(dest, name))
		if err != nil {
			t.Fatalf("read restored %s: %v", name, err)
		}
		if string(data) != content {
			t.Fatalf("restored %s mismatch: %q", name, data)
		}
	}
}

func TestSaveToFileInvertsLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coeffs.json")
	if err := os.WriteFile(path, []byte(`[0.5,1.5,2.5]`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	rec, err := record.LoadFromFile(path, record.MimeJSON, false)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if rec.Kind() != record.KindVector {
		t.Fatalf("expected vector record, got %s", rec.Kind())
	}

	out := filepath.Join(dir, "out", "coeffs.json")
	if err := record.SaveToFile(rec, out); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	reloaded, err := record.LoadFromFile(out, record.MimeJSON, false)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !rec.Equal(reloaded) {
		t.Fatal("reloaded record differs from original")
	}
}

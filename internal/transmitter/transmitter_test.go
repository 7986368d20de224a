package transmitter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mferrera/ert/internal/record"
	"github.com/mferrera/ert/internal/storage"
	"github.com/mferrera/ert/internal/transmitter"
)

func TestTransmitThenLoadRoundTrip(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()
	key := storage.Key{Experiment: "exp1", Name: "RESULT", Member: 0}

	tr := transmitter.New(backend, key)
	original := record.NewBlob([]byte("one\ntwo\nthree\n"), record.MimeText)
	if err := tr.Transmit(ctx, original); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}

	loaded, err := tr.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !original.Equal(loaded) {
		t.Fatal("loaded record differs from transmitted record")
	}
	if loaded.Mime() != record.MimeText {
		t.Fatalf("mime not preserved: %q", loaded.Mime())
	}
}

func TestResolveBeforeTransmit(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()
	tr := transmitter.New(backend, storage.Key{Experiment: "exp1", Name: "RESULT", Member: 0})

	if _, err := tr.Load(ctx); !errors.Is(err, transmitter.ErrNotTransmitted) {
		t.Fatalf("expected ErrNotTransmitted from Load, got %v", err)
	}
	if _, err := tr.URL(ctx); !errors.Is(err, transmitter.ErrNotTransmitted) {
		t.Fatalf("expected ErrNotTransmitted from URL, got %v", err)
	}
}

func TestRetransmitOverwrites(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()
	key := storage.Key{Experiment: "exp1", Name: "RESULT", Member: 4}

	tr := transmitter.New(backend, key)
	if err := tr.Transmit(ctx, record.NewScalar(1)); err != nil {
		t.Fatalf("first Transmit failed: %v", err)
	}
	second := record.NewScalar(2)
	if err := tr.Transmit(ctx, second); err != nil {
		t.Fatalf("second Transmit failed: %v", err)
	}

	loaded, err := tr.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !second.Equal(loaded) {
		t.Fatalf("expected second record to win, got %v", loaded.Scalar())
	}
}

func TestForStoredRecordResolvesImmediately(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()

	for member := 0; member < 3; member++ {
		key := storage.Key{Experiment: "exp1", Name: "COEFF", Member: member}
		tr := transmitter.New(backend, key)
		if err := tr.Transmit(ctx, record.NewScalar(float64(member))); err != nil {
			t.Fatalf("Transmit member %d failed: %v", member, err)
		}
		err := backend.UpdateMetadata(ctx, key.Meta(), func(meta storage.Metadata) storage.Metadata {
			meta.Mime = record.MimeJSON
			meta.EnsembleSize = 3
			meta.Members = append(meta.Members, member)
			return meta
		})
		if err != nil {
			t.Fatalf("UpdateMetadata failed: %v", err)
		}
	}

	transmitters, err := transmitter.ForStoredRecord(ctx, backend, "exp1", "COEFF")
	if err != nil {
		t.Fatalf("ForStoredRecord failed: %v", err)
	}
	if len(transmitters) != 3 {
		t.Fatalf("expected 3 transmitters, got %d", len(transmitters))
	}
	for i, tr := range transmitters {
		if !tr.Transmitted() {
			t.Fatalf("transmitter %d not marked transmitted", i)
		}
		rec, err := tr.Load(ctx)
		if err != nil {
			t.Fatalf("Load member %d failed: %v", i, err)
		}
		if rec.Scalar() != float64(i) {
			t.Fatalf("member %d payload mismatch: %v", i, rec.Scalar())
		}
	}
}

func TestForStoredRecordMissing(t *testing.T) {
	backend := storage.NewMemoryBackend()
	if _, err := transmitter.ForStoredRecord(context.Background(), backend, "exp1", "NOPE"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

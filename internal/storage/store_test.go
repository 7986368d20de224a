package storage_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mferrera/ert/internal/record"
	"github.com/mferrera/ert/internal/storage"
	"github.com/mferrera/ert/internal/testsupport"
)

func TestInitExperimentRegistersOnce(t *testing.T) {
	store, _ := testsupport.MustOpenMemoryStore(t)
	ctx := context.Background()

	if err := store.InitExperiment(ctx, "exp1", []string{"COEFF"}, []string{"RESULT"}, 5); err != nil {
		t.Fatalf("InitExperiment failed: %v", err)
	}
	if err := store.InitExperiment(ctx, "exp1", nil, nil, 5); !errors.Is(err, storage.ErrExperimentExists) {
		t.Fatalf("expected ErrExperimentExists, got %v", err)
	}

	names, err := store.ExperimentNames(ctx)
	if err != nil {
		t.Fatalf("ExperimentNames failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"exp1"}) {
		t.Fatalf("unexpected experiment names %v", names)
	}

	params, err := store.ExperimentParameters(ctx, "exp1")
	if err != nil {
		t.Fatalf("ExperimentParameters failed: %v", err)
	}
	if !reflect.DeepEqual(params, []string{"COEFF"}) {
		t.Fatalf("unexpected parameters %v", params)
	}
	responses, err := store.ExperimentResponses(ctx, "exp1")
	if err != nil {
		t.Fatalf("ExperimentResponses failed: %v", err)
	}
	if !reflect.DeepEqual(responses, []string{"RESULT"}) {
		t.Fatalf("unexpected responses %v", responses)
	}
	size, err := store.EnsembleSize(ctx, "exp1")
	if err != nil {
		t.Fatalf("EnsembleSize failed: %v", err)
	}
	if size != 5 {
		t.Fatalf("unexpected ensemble size %d", size)
	}
}

func TestExperimentLookupMissing(t *testing.T) {
	store, _ := testsupport.MustOpenMemoryStore(t)
	ctx := context.Background()

	if _, err := store.ExperimentParameters(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsembleRecordNamesExcludesExperimentDoc(t *testing.T) {
	store, backend := testsupport.MustOpenMemoryStore(t)
	ctx := context.Background()

	if err := store.InitExperiment(ctx, "exp1", nil, nil, 1); err != nil {
		t.Fatalf("InitExperiment failed: %v", err)
	}
	key := storage.Key{Experiment: "exp1", Name: "RESULT", Member: 0}
	if err := backend.Put(ctx, key, []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.MarkMemberTransmitted(ctx, key, storage.CollectionInfo{Mime: "text/plain", EnsembleSize: 1}); err != nil {
		t.Fatalf("MarkMemberTransmitted failed: %v", err)
	}

	names, err := store.EnsembleRecordNames(ctx, "exp1")
	if err != nil {
		t.Fatalf("EnsembleRecordNames failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"RESULT"}) {
		t.Fatalf("unexpected record names %v", names)
	}
}

func TestDeleteExperimentRemovesRecords(t *testing.T) {
	store, backend := testsupport.MustOpenMemoryStore(t)
	ctx := context.Background()

	if err := store.InitExperiment(ctx, "exp1", nil, nil, 1); err != nil {
		t.Fatalf("InitExperiment failed: %v", err)
	}
	key := storage.Key{Experiment: "exp1", Name: "RESULT", Member: 0}
	if err := backend.Put(ctx, key, []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.DeleteExperiment(ctx, "exp1"); err != nil {
		t.Fatalf("DeleteExperiment failed: %v", err)
	}
	if _, err := store.RecordURL(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected record gone after delete, got %v", err)
	}
	names, err := store.ExperimentNames(ctx)
	if err != nil {
		t.Fatalf("ExperimentNames failed: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no experiments, got %v", names)
	}
}

func TestAddRecordThenLoadRoundTrips(t *testing.T) {
	store, _ := testsupport.MustOpenMemoryStore(t)
	ctx := context.Background()

	key := storage.Key{Experiment: "exp1", Name: "COEFF", Member: 2}
	if err := store.AddRecord(ctx, key, record.NewScalar(3.25), "loaded"); err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}

	rec, err := store.LoadRecord(ctx, key)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if got := rec.Scalar(); got != 3.25 {
		t.Fatalf("unexpected scalar %v", got)
	}

	meta, err := store.RecordMetadata(ctx, "exp1", "COEFF")
	if err != nil {
		t.Fatalf("RecordMetadata failed: %v", err)
	}
	if !meta.HasMember(2) {
		t.Fatalf("expected member 2 recorded, got %v", meta.Members)
	}
	if meta.EnsembleSize != 3 {
		t.Fatalf("expected ensemble size 3, got %d", meta.EnsembleSize)
	}
	if meta.Source != "loaded" {
		t.Fatalf("unexpected source %q", meta.Source)
	}
}

func TestAddRecordRejectsReservedName(t *testing.T) {
	store, _ := testsupport.MustOpenMemoryStore(t)
	key := storage.Key{Experiment: "exp1", Name: "@experiment"}
	if err := store.AddRecord(context.Background(), key, record.NewScalar(1), "loaded"); err == nil {
		t.Fatal("expected reserved name to be rejected")
	}
}

func TestRecordURLAsyncMatchesBlocking(t *testing.T) {
	store, backend := testsupport.MustOpenMemoryStore(t)
	ctx := context.Background()

	key := storage.Key{Experiment: "exp1", Name: "RESULT", Member: 2}
	if err := backend.Put(ctx, key, []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	blocking, err := store.RecordURL(ctx, key)
	if err != nil {
		t.Fatalf("RecordURL failed: %v", err)
	}
	result := <-store.RecordURLAsync(ctx, key)
	if result.Err != nil {
		t.Fatalf("RecordURLAsync failed: %v", result.Err)
	}
	if result.URL != blocking {
		t.Fatalf("async url %q differs from blocking %q", result.URL, blocking)
	}
}

func TestRecordURLAsyncMissingRecord(t *testing.T) {
	store, _ := testsupport.MustOpenMemoryStore(t)
	result := <-store.RecordURLAsync(context.Background(), storage.Key{Experiment: "exp1", Name: "NOPE"})
	if !errors.Is(result.Err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", result.Err)
	}
}

func TestValidRecordName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"RESULT", true},
		{"coeff_0", true},
		{"", false},
		{"@experiment", false},
		{"bad/name", false},
	}
	for _, tc := range cases {
		err := storage.ValidRecordName(tc.name)
		if tc.ok && err != nil {
			t.Fatalf("expected %q to be valid: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("expected %q to be rejected", tc.name)
		}
	}
}

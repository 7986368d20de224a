package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mferrera/ert/internal/config"
	"github.com/mferrera/ert/internal/logging"
	"github.com/mferrera/ert/internal/record"
)

// Store wraps a Backend with the experiment-level surface: experiment
// registration, collection load-back, URL resolution, and deletion. It is
// constructed once at process start and passed explicitly to everything
// that touches storage.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// Open builds the configured backend and wraps it in a Store.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	backend, err := OpenBackend(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(backend, logger), nil
}

// NewStore wraps an existing backend.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "storage"),
	}
}

// Backend exposes the underlying driver for transmitter construction.
func (s *Store) Backend() Backend { return s.backend }

// Close releases the backend.
func (s *Store) Close() error { return s.backend.Close() }

// InitExperiment registers an experiment with its declared parameter and
// response record names and ensemble size. Registering twice fails with
// ErrExperimentExists.
func (s *Store) InitExperiment(ctx context.Context, name string, parameters, responses []string, ensembleSize int) error {
	if name == "" {
		return errors.New("experiment name must not be empty")
	}
	key := MetaKey{Experiment: name, Name: experimentMetaName}
	if _, err := s.backend.GetMetadata(ctx, key); err == nil {
		return fmt.Errorf("%w: %q", ErrExperimentExists, name)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	meta := Metadata{
		EnsembleSize: ensembleSize,
		Parameters:   slices.Clone(parameters),
		Responses:    slices.Clone(responses),
	}
	if err := s.backend.PutMetadata(ctx, key, meta); err != nil {
		return fmt.Errorf("register experiment %q: %w", name, err)
	}
	s.logger.InfoContext(ctx, "experiment initialized",
		logging.String("experiment", name),
		logging.Int("ensemble_size", ensembleSize))
	return nil
}

// ExperimentNames lists registered experiments.
func (s *Store) ExperimentNames(ctx context.Context) ([]string, error) {
	keys, err := s.backend.ListMeta(ctx, "")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, key := range keys {
		if key.Name == experimentMetaName {
			names = append(names, key.Experiment)
		}
	}
	slices.Sort(names)
	return names, nil
}

// ExperimentParameters returns the parameter record names declared at
// experiment registration.
func (s *Store) ExperimentParameters(ctx context.Context, experiment string) ([]string, error) {
	meta, err := s.experimentDoc(ctx, experiment)
	if err != nil {
		return nil, err
	}
	return slices.Clone(meta.Parameters), nil
}

// ExperimentResponses returns the response record names declared at
// experiment registration.
func (s *Store) ExperimentResponses(ctx context.Context, experiment string) ([]string, error) {
	meta, err := s.experimentDoc(ctx, experiment)
	if err != nil {
		return nil, err
	}
	return slices.Clone(meta.Responses), nil
}

// EnsembleSize returns the declared ensemble size of an experiment.
func (s *Store) EnsembleSize(ctx context.Context, experiment string) (int, error) {
	meta, err := s.experimentDoc(ctx, experiment)
	if err != nil {
		return 0, err
	}
	return meta.EnsembleSize, nil
}

// DeleteExperiment removes every record and metadata document stored under
// the experiment.
func (s *Store) DeleteExperiment(ctx context.Context, experiment string) error {
	if err := s.backend.Delete(ctx, experiment); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "experiment deleted", logging.String("experiment", experiment))
	return nil
}

// EnsembleRecordNames lists record names transmitted under an experiment.
func (s *Store) EnsembleRecordNames(ctx context.Context, experiment string) ([]string, error) {
	keys, err := s.backend.ListMeta(ctx, experiment)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, key := range keys {
		if key.Name != experimentMetaName {
			names = append(names, key.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// RecordMetadata loads the metadata document for a stored record.
func (s *Store) RecordMetadata(ctx context.Context, experiment, name string) (Metadata, error) {
	return s.backend.GetMetadata(ctx, MetaKey{Experiment: experiment, Name: name})
}

// AddRecordMetadata stores descriptive metadata for a record independent
// of its bytes.
func (s *Store) AddRecordMetadata(ctx context.Context, experiment, name string, meta Metadata) error {
	if err := ValidRecordName(name); err != nil {
		return err
	}
	return s.backend.PutMetadata(ctx, MetaKey{Experiment: experiment, Name: name}, meta)
}

// AddRecord stores one member's record directly, outside a collection
// transmission. The metadata merge mirrors a transmitted member so the
// record loads and resolves the same way afterwards.
func (s *Store) AddRecord(ctx context.Context, key Key, rec *record.Record, source string) error {
	if err := ValidRecordName(key.Name); err != nil {
		return err
	}
	data, err := record.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store record %s: %w", key, err)
	}
	return s.backend.UpdateMetadata(ctx, key.Meta(), func(meta Metadata) Metadata {
		meta.Mime = rec.Mime()
		meta.IsDirectory = rec.IsDirectory()
		if key.Member+1 > meta.EnsembleSize {
			meta.EnsembleSize = key.Member + 1
		}
		meta.Source = source
		meta.TransmittedAt = time.Now().UTC()
		if !meta.HasMember(key.Member) {
			meta.Members = append(meta.Members, key.Member)
			slices.Sort(meta.Members)
		}
		return meta
	})
}

// MarkMemberTransmitted merges one member's durable write into the record
// metadata. Called only after that member's bytes are stored, so metadata
// never becomes visible before the payload it describes.
func (s *Store) MarkMemberTransmitted(ctx context.Context, key Key, coll CollectionInfo) error {
	return s.backend.UpdateMetadata(ctx, key.Meta(), func(meta Metadata) Metadata {
		meta.Mime = coll.Mime
		meta.IsDirectory = coll.IsDirectory
		meta.EnsembleSize = coll.EnsembleSize
		meta.Source = coll.Source
		meta.RequestID = coll.RequestID
		meta.TransmittedAt = time.Now().UTC()
		if !meta.HasMember(key.Member) {
			meta.Members = append(meta.Members, key.Member)
			slices.Sort(meta.Members)
		}
		return meta
	})
}

// CollectionInfo carries the collection-level facts recorded alongside
// each member's metadata merge.
type CollectionInfo struct {
	Mime         string
	IsDirectory  bool
	EnsembleSize int
	Source       string
	RequestID    string
}

// EnsembleRecord loads a full collection back from storage, the inverse of
// transmitting it.
func (s *Store) EnsembleRecord(ctx context.Context, experiment, name string) (*record.Collection, error) {
	meta, err := s.RecordMetadata(ctx, experiment, name)
	if err != nil {
		return nil, err
	}
	records := make([]*record.Record, meta.EnsembleSize)
	for member := 0; member < meta.EnsembleSize; member++ {
		rec, err := s.loadMember(ctx, Key{Experiment: experiment, Name: name, Member: member}, meta)
		if err != nil {
			return nil, err
		}
		records[member] = rec
	}
	return record.NewCollection(records)
}

// LoadRecord loads one member's record back from storage.
func (s *Store) LoadRecord(ctx context.Context, key Key) (*record.Record, error) {
	meta, err := s.RecordMetadata(ctx, key.Experiment, key.Name)
	if err != nil {
		return nil, err
	}
	return s.loadMember(ctx, key, meta)
}

func (s *Store) loadMember(ctx context.Context, key Key, meta Metadata) (*record.Record, error) {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if meta.IsDirectory {
		return record.NewDirectory(data), nil
	}
	rec, err := record.Decode(data, meta.Mime)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	return rec, nil
}

// RecordURL resolves one stored member to an addressable location without
// loading it. Fails with ErrNotFound if nothing was ever transmitted under
// the key.
func (s *Store) RecordURL(ctx context.Context, key Key) (string, error) {
	return s.backend.URL(ctx, key)
}

// RecordURLs resolves every transmitted member of a record in index order.
func (s *Store) RecordURLs(ctx context.Context, experiment, name string) ([]string, error) {
	meta, err := s.RecordMetadata(ctx, experiment, name)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(meta.Members))
	for _, member := range meta.Members {
		u, err := s.backend.URL(ctx, Key{Experiment: experiment, Name: name, Member: member})
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// URLResult is the outcome delivered by RecordURLAsync.
type URLResult struct {
	URL string
	Err error
}

// RecordURLAsync resolves a record location in the background. The caller
// receives exactly one result on the returned channel and may abandon the
// wait through ctx without affecting stored state. Both this and RecordURL
// read the same underlying state and are interchangeable apart from the
// calling convention.
func (s *Store) RecordURLAsync(ctx context.Context, key Key) <-chan URLResult {
	out := make(chan URLResult, 1)
	go func() {
		defer close(out)
		u, err := s.backend.URL(ctx, key)
		out <- URLResult{URL: u, Err: err}
	}()
	return out
}

func (s *Store) experimentDoc(ctx context.Context, experiment string) (Metadata, error) {
	meta, err := s.backend.GetMetadata(ctx, MetaKey{Experiment: experiment, Name: experimentMetaName})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Metadata{}, fmt.Errorf("%w: experiment %q", ErrNotFound, experiment)
		}
		return Metadata{}, err
	}
	return meta, nil
}

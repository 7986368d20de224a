package transmission

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mferrera/ert/internal/logging"
	"github.com/mferrera/ert/internal/record"
	"github.com/mferrera/ert/internal/storage"
	"github.com/mferrera/ert/internal/transmitter"
)

// Orchestrator transmits record collections through per-member storage
// transmitters.
type Orchestrator struct {
	store          *storage.Store
	logger         *slog.Logger
	maxConcurrency int
}

// Option configures optional orchestrator behavior.
type Option func(*Orchestrator)

// WithMaxConcurrency caps the number of in-flight member transmissions.
func WithMaxConcurrency(limit int) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.maxConcurrency = limit
		}
	}
}

const defaultMaxConcurrency = 16

// NewOrchestrator builds an orchestrator over a store.
func NewOrchestrator(store *storage.Store, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:          store,
		logger:         logging.NewComponentLogger(logger, "transmission"),
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Transmit sends every member of the collection and blocks until all have
// finished. Source is recorded as provenance in the record metadata. On
// partial failure the returned error is an *AggregateError; successful
// members stay durable.
func (o *Orchestrator) Transmit(ctx context.Context, coll *record.Collection, name, experiment, source string) error {
	return o.Start(ctx, coll, name, experiment, source).Wait(ctx)
}

// Start begins transmitting the collection and returns immediately. The
// caller awaits completion through the returned handle and may overlap
// other work with the in-flight transmission.
func (o *Orchestrator) Start(ctx context.Context, coll *record.Collection, name, experiment, source string) *Transmission {
	t := &Transmission{done: make(chan struct{})}

	if err := storage.ValidRecordName(name); err != nil {
		t.err = err
		close(t.done)
		return t
	}

	requestID := uuid.NewString()
	members := coll.Records()
	logger := o.logger.With(
		logging.String("experiment", experiment),
		logging.String("record", name),
		logging.String("request_id", requestID),
	)
	logger.InfoContext(ctx, "transmission started", logging.Int("ensemble_size", len(members)))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel

	go func() {
		defer close(t.done)
		defer cancel()
		t.err = o.run(runCtx, logger, members, name, experiment, source, requestID)
	}()
	return t
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, members []*record.Record, name, experiment, source, requestID string) error {
	info := storage.CollectionInfo{
		EnsembleSize: len(members),
		Source:       source,
		RequestID:    requestID,
	}
	if len(members) > 0 {
		info.Mime = members[0].Mime()
		info.IsDirectory = members[0].IsDirectory()
	}

	limit := o.maxConcurrency
	if len(members) < limit {
		limit = len(members)
	}
	sem := make(chan struct{}, max(limit, 1))

	// One slot per member; goroutines write disjoint indices so no lock
	// is needed around the results.
	errs := make([]error, len(members))
	var wg sync.WaitGroup
	for member, rec := range members {
		wg.Add(1)
		go func(member int, rec *record.Record) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[member] = o.transmitMember(ctx, member, rec, name, experiment, info)
		}(member, rec)
	}
	wg.Wait()

	failures := make(map[int]error)
	for member, err := range errs {
		if err != nil {
			failures[member] = err
		}
	}
	if len(failures) > 0 {
		err := &AggregateError{Failures: failures}
		logger.WarnContext(ctx, "transmission finished with failures",
			logging.Int("failed", len(failures)),
			logging.Int("succeeded", len(members)-len(failures)))
		return err
	}
	logger.InfoContext(ctx, "transmission complete", logging.Int("ensemble_size", len(members)))
	return nil
}

func (o *Orchestrator) transmitMember(ctx context.Context, member int, rec *record.Record, name, experiment string, info storage.CollectionInfo) error {
	key := storage.Key{Experiment: experiment, Name: name, Member: member}
	tr := transmitter.New(o.store.Backend(), key)
	if err := tr.Transmit(ctx, rec); err != nil {
		return err
	}
	// Metadata strictly follows the member's durable bytes.
	return o.store.MarkMemberTransmitted(ctx, key, info)
}

// Transmission is the awaitable handle for an in-flight collection
// transmission.
type Transmission struct {
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// Wait blocks until the transmission finishes or ctx is done. A ctx
// expiry abandons the wait without undoing already-durable member writes;
// in-flight members are cancelled.
func (t *Transmission) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		t.Cancel()
		return ctx.Err()
	}
}

// Cancel stops waiting on still-pending members. Durable writes are not
// rolled back.
func (t *Transmission) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Done reports completion without blocking.
func (t *Transmission) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

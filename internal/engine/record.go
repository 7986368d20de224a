// Package engine ties the workspace-level record operations together:
// loading a file into a collection and transmitting it, and sampling a
// parameter group into a fresh collection for an ensemble.
package engine

import (
	"context"

	"github.com/mferrera/ert/internal/record"
	"github.com/mferrera/ert/internal/sampling"
	"github.com/mferrera/ert/internal/transmission"
)

// Provenance values recorded in metadata for transmitted collections.
const (
	SourceLoaded  = "loaded"
	SourceSampled = "sampled"
)

// LoadRecord loads a file (or directory) from disk into a single-member
// collection and transmits it under the record name for the workspace's
// experiment.
func LoadRecord(ctx context.Context, orch *transmission.Orchestrator, experiment, recordName, path, mime string, isDirectory bool) error {
	collection, err := record.LoadCollectionFromFile(path, mime, isDirectory)
	if err != nil {
		return err
	}
	return orch.Transmit(ctx, collection, recordName, experiment, SourceLoaded)
}

// SampleRecord draws an ensemble-sized collection from the named parameter
// group's distribution. The caller decides whether and when to transmit
// it; sampling and transmission are independent all-or-nothing stages.
func SampleRecord(params *sampling.Parameters, groupName string, ensembleSize int) (*record.Collection, error) {
	return params.SampleCollection(groupName, ensembleSize)
}

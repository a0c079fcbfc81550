package ports

import (
	"context"

	"surveytab/domain/snapshot"
	"surveytab/domain/survey"
)

// DatasetSource loads the raw survey dataset from wherever it lives.
type DatasetSource interface {
	Name() string
	Load(ctx context.Context) (survey.Dataset, error)
}

// SnapshotProvider hands out the current dataset snapshot.
type SnapshotProvider interface {
	// Get returns the current snapshot, loading it on first use
	Get(ctx context.Context) (*snapshot.Snapshot, error)
	// Refresh reloads through the source and swaps the snapshot atomically
	Refresh(ctx context.Context) (*snapshot.Snapshot, error)
	// Peek returns the current snapshot without loading, nil before the first load
	Peek() *snapshot.Snapshot
}

// ResponseRepository persists raw survey responses.
type ResponseRepository interface {
	SaveResponses(ctx context.Context, records []survey.Record) (int, error)
	CountResponses(ctx context.Context) (int, error)
}

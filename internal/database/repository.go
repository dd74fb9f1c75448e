package database

import (
	"context"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

// ResultReader provides read-only access to reconciled rows
type ResultReader interface {
	// ListResults returns all rows stored for an external image id
	ListResults(ctx context.Context, externalImageID string) ([]StoredResult, error)
	// CountResults returns the total number of stored rows
	CountResults(ctx context.Context) (int, error)
}

// ResultWriter persists reconciled rows
type ResultWriter interface {
	// SaveResults stores one row per face of the batch
	SaveResults(ctx context.Context, batch facematch.ResultBatch) error
}

// ResultStore is a backend that can both read and write results
type ResultStore interface {
	ResultReader
	ResultWriter
}

// Sink adapts a ResultWriter to facematch.ResultSink.
type Sink struct {
	Writer ResultWriter
}

// Deliver writes the results with the request context attached.
func (s Sink) Deliver(ctx context.Context, rc facematch.RequestContext, results []facematch.MatchResult) error {
	return s.Writer.SaveResults(ctx, facematch.NewResultBatch(rc, results))
}

package driving

import (
	"context"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// IngestService maintains the versioned index store from the corpus
// directory.
type IngestService interface {
	// Ingest scans the corpus, diffs it against the previous run and
	// writes a new build when anything changed. Returns
	// domain.ErrIngestInProgress if a run is already active.
	Ingest(ctx context.Context) (domain.IngestReport, error)
}

// RetrievalService exposes query → top-k hits over the current build.
type RetrievalService interface {
	// Retrieve returns up to k hits for the query, sorted by descending
	// score. A disabled retriever returns an empty slice, never an
	// error.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error)

	// Enabled reports whether a build is loaded.
	Enabled() bool
}

package driven

import (
	"context"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// TraceSink is a write-only audit sink for decision traces. Sink
// failures are logged by callers and never fail the request that
// produced the trace.
type TraceSink interface {
	// Write persists one trace.
	Write(ctx context.Context, trace *domain.DecisionTrace) error

	// Close releases resources.
	Close() error
}

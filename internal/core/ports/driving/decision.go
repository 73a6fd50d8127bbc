package driving

import (
	"context"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// DecisionService runs the full consensus pipeline for one request.
type DecisionService interface {
	// Decide routes, validates, retrieves evidence, consults the agent
	// panel and arbitrates. A response is always produced; the error
	// return covers only internal faults the pipeline could not absorb.
	Decide(ctx context.Context, req domain.DecisionRequest) (domain.DecisionResponse, error)
}

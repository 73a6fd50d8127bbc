package console

import (
	"github.com/eras-labs/consilium/internal/core/domain"
)

// DecideCompleted carries the pipeline's answer back to the model.
type DecideCompleted struct {
	Response domain.DecisionResponse
	Err      error
}

// SearchCompleted carries evidence lookup results back to the model.
type SearchCompleted struct {
	Query string
	Hits  []domain.RetrievalHit
	Err   error
}

// Package console provides the interactive terminal interface for
// consilium. It implements a driving adapter following hexagonal
// architecture principles.
package console

import (
	"github.com/eras-labs/consilium/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the console.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Decision runs the consensus pipeline for a clinical question.
	Decision driving.DecisionService

	// Retrieval answers evidence lookups against the current build.
	Retrieval driving.RetrievalService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(decision driving.DecisionService, retrieval driving.RetrievalService) *Ports {
	return &Ports{
		Decision:  decision,
		Retrieval: retrieval,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.Decision == nil {
		return ErrMissingDecisionService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}

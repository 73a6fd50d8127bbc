// Package domain defines the core business entities for Consilium.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Scenario: A recognised clinical scenario
//   - Chunk: An embedded unit of guideline text
//   - RetrievalHit: A chunk retrieved for a query, with its score
//   - AgentDecision / ArbiterDecision: Structured model output
//   - DecisionRequest / DecisionResponse: The caller-facing contract
//   - Manifest / BuildInfo: The versioned index store records
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - LLMService: Turns a prompt into text over one of several wire protocols
//   - EmbeddingService: Generates normalized vector embeddings
//   - BuildStore: Versioned on-disk store of index snapshots
//   - VectorIndex: Inner-product similarity search over chunk vectors
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TraceSink: Write-only audit sink for decision traces. Without it,
//     requests are served but not traced.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

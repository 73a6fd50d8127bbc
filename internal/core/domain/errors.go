package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendNotConfigured indicates a model backend was selected but
	// left unconfigured (e.g. a placeholder base URL). Surfaces before
	// any network call is made.
	ErrBackendNotConfigured = errors.New("backend not configured")

	// ErrLLMUnavailable indicates no model backend is available.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Retrieval and ingestion are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRetrievalDisabled indicates the retriever has no loaded build
	// and operates in its degraded empty-hits state.
	ErrRetrievalDisabled = errors.New("retrieval disabled")

	// ErrIngestInProgress indicates an ingestion run is already active.
	// Ingestion is single-writer; concurrent runs are rejected.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrNoJSON indicates model output contained no JSON object.
	ErrNoJSON = errors.New("no JSON found in response")

	// ErrJSONDecode indicates extracted JSON failed to parse.
	ErrJSONDecode = errors.New("json decode error")

	// ErrSchemaValidation indicates parsed JSON did not match the
	// decision schema (unknown field, wrong type, or missing required
	// key).
	ErrSchemaValidation = errors.New("schema validation error")

	// ErrNoCitations indicates a decision cited nothing.
	ErrNoCitations = errors.New("at least one citation is required")
)

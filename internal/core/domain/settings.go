package domain

import "time"

// Model backend identifiers.
const (
	BackendOllama = "ollama"
	BackendVLLM   = "vllm"
	BackendTRTLLM = "trtllm"
)

// Embedding provider identifiers.
const (
	EmbeddingProviderOllama = "ollama"
	EmbeddingProviderOpenAI = "openai"
)

// BackendSettings selects and configures the model backend.
type BackendSettings struct {
	// Backend is one of the Backend* identifiers (default: ollama).
	Backend string

	// BaseURL overrides the backend's default endpoint.
	BaseURL string

	// Model is the model identifier to generate with.
	Model string

	// APIKey is passed to backends that enforce bearer auth.
	APIKey string

	// Timeout bounds each generation call.
	Timeout time.Duration

	// RPS throttles generation calls; 0 disables throttling.
	RPS float64
}

// EmbeddingSettings selects and configures the embedding provider.
type EmbeddingSettings struct {
	// Provider is one of the EmbeddingProvider* identifiers
	// (default: ollama).
	Provider string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the embedding model identifier.
	Model string

	// APIKey is required by the openai provider.
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

package driven

import "context"

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens limits the response length (0 = backend default).
	MaxTokens int

	// Temperature controls randomness (0.0-1.0, 0 = backend default).
	Temperature float64
}

// LLMService turns a prompt into model text over one of several wire
// protocols (Ollama-native or OpenAI-compatible). Implementations
// retry once on transport-level failure only; application-level
// failures (non-2xx responses) surface immediately. An unconfigured
// backend returns domain.ErrBackendNotConfigured before any network
// call.
type LLMService interface {
	// Generate produces text from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// BackendName identifies the wire protocol ("ollama", "vllm", "trtllm").
	BackendName() string

	// Ping validates the service is reachable and working.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

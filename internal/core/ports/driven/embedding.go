package driven

import "context"

// EmbeddingService generates vector embeddings from text. Vectors are
// L2-normalized by the adapter, so inner product equals cosine
// similarity downstream.
type EmbeddingService interface {
	// Embed generates a normalized embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable and working.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

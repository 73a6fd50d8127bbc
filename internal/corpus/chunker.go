// Package corpus reads, chunks and fingerprints the guideline corpus
// that ingestion feeds into the vector store.
package corpus

import (
	"strings"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// Chunker splits document text into fixed-size overlapping windows.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewChunker creates a chunker with the given options.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured window width.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured window overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into windows of chunkSize characters advancing by
// chunkSize - overlap. Offsets are in characters, not bytes, so
// multi-byte text chunks the same everywhere. The walk stops at the
// first empty or whitespace-only remainder; no chunk is emitted for
// it. Identical (source, offset, text) always yields the identical
// UID.
func (c *Chunker) Chunk(source, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.chunkSize - c.overlap

	estimated := (len(runes) / step) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	chunkID := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) == "" {
			break
		}

		chunks = append(chunks, domain.Chunk{
			UID:     domain.ChunkUID(source, start, window),
			Source:  source,
			ChunkID: chunkID,
			Offset:  start,
			Text:    window,
		})
		chunkID++
	}

	return chunks
}

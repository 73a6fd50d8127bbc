package domain

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
)

// Chunk is one embedded window of guideline text. Chunks are created
// during ingestion, owned by the build that stored them, and immutable
// once written.
type Chunk struct {
	// UID is the deterministic identity of the chunk. See ChunkUID.
	UID int64 `json:"uid"`

	// Source is the corpus-relative path of the originating document.
	Source string `json:"source"`

	// ChunkID is the ordinal of the chunk within its source.
	ChunkID int `json:"chunk_id"`

	// Offset is the character offset of the window within the source text.
	Offset int `json:"offset"`

	// Text is the raw window text.
	Text string `json:"text"`
}

// ChunkUID derives the identity of a chunk from its source, offset and
// text. The first eight bytes of sha1("source:offset:text") are read as
// a big-endian signed 64-bit integer. The function is pure: identical
// inputs always yield the identical id. Collisions are possible and not
// handled.
func ChunkUID(source string, offset int, text string) int64 {
	sum := sha1.Sum(fmt.Appendf(nil, "%s:%d:%s", source, offset, text))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// RetrievalHit is a chunk retrieved for a query together with its
// similarity score. Hits are ephemeral: produced per query, never
// persisted.
type RetrievalHit struct {
	// Score is the cosine similarity between query and chunk.
	Score float64 `json:"score"`

	// Source is the chunk's originating document path.
	Source string `json:"source"`

	// ChunkID is the chunk's ordinal within its source.
	ChunkID int `json:"chunk_id"`

	// Text is the chunk text.
	Text string `json:"text"`
}

// Key returns the (source, chunk_id) pair used for citation matching.
func (h RetrievalHit) Key() CitationKey {
	return CitationKey{Source: h.Source, ChunkID: h.ChunkID}
}

// CitationKey identifies a citable chunk by source and ordinal.
type CitationKey struct {
	Source  string
	ChunkID int
}

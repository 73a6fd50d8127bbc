package driven

import (
	"context"
	"io"
)

// VectorIndex provides inner-product similarity search over chunk
// vectors. Vectors are normalized before insertion, so inner product
// equals cosine similarity. Entries are keyed by the chunk UID.
type VectorIndex interface {
	// Add inserts a vector for the given chunk UID. Re-adding an
	// existing UID replaces its vector.
	Add(ctx context.Context, uid int64, embedding []float32) error

	// Delete removes the given UIDs from the index. Unknown UIDs are
	// ignored. Returns the number of entries actually removed.
	Delete(ctx context.Context, uids []int64) (int, error)

	// Search finds the k highest-scoring entries for the query vector,
	// sorted by descending score. An empty index yields an empty
	// result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of entries in the index.
	Len() int

	// Dim returns the vector dimensionality, 0 until the first Add.
	Dim() int

	// WriteTo serializes the index for the build store.
	WriteTo(w io.Writer) (int64, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// UID is the matched chunk.
	UID int64

	// Score is the inner-product similarity.
	Score float64
}

// Package flat provides an exact inner-product vector index.
//
// Vectors are normalized before insertion, so inner product equals
// cosine similarity and an exhaustive scan returns the true top-k,
// matching the exact-search semantics the retrieval layer is built
// around. Unlike graph-based structures, the flat layout supports real
// deletion: removing a UID compacts the backing arrays, so updated
// sources never leave stale vectors behind.
package flat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/eras-labs/consilium/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Serialization format constants.
const (
	magic   = "CFI1"
	version = uint16(1)
)

// Index is an exact inner-product index over chunk vectors.
type Index struct {
	mu     sync.RWMutex
	dim    int
	uids   []int64
	vecs   [][]float32
	slots  map[int64]int
	closed bool
}

// New creates an empty index. Dimensionality is pinned by the first
// Add.
func New() *Index {
	return &Index{
		slots: make(map[int64]int),
	}
}

// Add inserts a vector for the given chunk UID. Re-adding an existing
// UID replaces its vector.
func (idx *Index) Add(_ context.Context, uid int64, embedding []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}
	if len(embedding) == 0 {
		return errors.New("flat: empty embedding")
	}
	if idx.dim == 0 {
		idx.dim = len(embedding)
	}
	if len(embedding) != idx.dim {
		return fmt.Errorf("flat: embedding dimension mismatch: got %d, want %d", len(embedding), idx.dim)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	if slot, ok := idx.slots[uid]; ok {
		idx.vecs[slot] = vec
		return nil
	}

	idx.slots[uid] = len(idx.uids)
	idx.uids = append(idx.uids, uid)
	idx.vecs = append(idx.vecs, vec)
	return nil
}

// Delete removes the given UIDs, compacting the backing arrays by
// moving the last entry into the freed slot. Unknown UIDs are ignored.
func (idx *Index) Delete(_ context.Context, uids []int64) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return 0, errors.New("flat: index is closed")
	}

	removed := 0
	for _, uid := range uids {
		slot, ok := idx.slots[uid]
		if !ok {
			continue
		}

		last := len(idx.uids) - 1
		if slot != last {
			idx.uids[slot] = idx.uids[last]
			idx.vecs[slot] = idx.vecs[last]
			idx.slots[idx.uids[slot]] = slot
		}
		idx.uids = idx.uids[:last]
		idx.vecs = idx.vecs[:last]
		delete(idx.slots, uid)
		removed++
	}

	return removed, nil
}

// Search scans every entry and returns the k highest inner-product
// scores, sorted descending. An empty index yields an empty result.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("flat: index is closed")
	}
	if k <= 0 || len(idx.uids) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("flat: query dimension mismatch: got %d, want %d", len(query), idx.dim)
	}

	hits := make([]driven.VectorHit, 0, len(idx.uids))
	for slot, vec := range idx.vecs {
		var score float64
		for i, q := range query {
			score += float64(q) * float64(vec[i])
		}
		hits = append(hits, driven.VectorHit{UID: idx.uids[slot], Score: score})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of entries in the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.uids)
}

// Dim returns the vector dimensionality, 0 until the first Add.
func (idx *Index) Dim() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dim
}

// WriteTo serializes the index: a fixed header followed by one
// uid + vector record per entry, little-endian throughout.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return 0, errors.New("flat: index is closed")
	}

	cw := &countingWriter{w: w}

	if _, err := cw.Write([]byte(magic)); err != nil {
		return cw.n, fmt.Errorf("flat: write magic: %w", err)
	}
	header := []any{version, uint32(idx.dim), uint64(len(idx.uids))}
	for _, field := range header {
		if err := binary.Write(cw, binary.LittleEndian, field); err != nil {
			return cw.n, fmt.Errorf("flat: write header: %w", err)
		}
	}

	for slot, uid := range idx.uids {
		if err := binary.Write(cw, binary.LittleEndian, uid); err != nil {
			return cw.n, fmt.Errorf("flat: write uid: %w", err)
		}
		if err := binary.Write(cw, binary.LittleEndian, idx.vecs[slot]); err != nil {
			return cw.n, fmt.Errorf("flat: write vector: %w", err)
		}
	}

	return cw.n, nil
}

// Read deserializes an index previously written with WriteTo.
func Read(r io.Reader) (*Index, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("flat: read magic: %w", err)
	}
	if string(head) != magic {
		return nil, errors.New("flat: bad magic, not a flat index file")
	}

	var (
		ver   uint16
		dim   uint32
		count uint64
	)
	if err := binary.Read(r, binary.LittleEndian, &ver); err != nil {
		return nil, fmt.Errorf("flat: read version: %w", err)
	}
	if ver != version {
		return nil, fmt.Errorf("flat: unsupported version %d", ver)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("flat: read dim: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("flat: read count: %w", err)
	}

	idx := New()
	idx.dim = int(dim)
	idx.uids = make([]int64, 0, count)
	idx.vecs = make([][]float32, 0, count)

	for i := uint64(0); i < count; i++ {
		var uid int64
		if err := binary.Read(r, binary.LittleEndian, &uid); err != nil {
			return nil, fmt.Errorf("flat: read uid %d: %w", i, err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("flat: read vector %d: %w", i, err)
		}
		idx.slots[uid] = len(idx.uids)
		idx.uids = append(idx.uids, uid)
		idx.vecs = append(idx.vecs, vec)
	}

	return idx, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.uids = nil
	idx.vecs = nil
	idx.slots = nil
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

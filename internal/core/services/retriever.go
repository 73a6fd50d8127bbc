package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
	"github.com/eras-labs/consilium/internal/core/ports/driving"
	"github.com/eras-labs/consilium/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever is the read-only retrieval facade over the store's current
// build. Construction resolves the manifest and loads the build once;
// the loaded snapshot is never mutated, only swapped by Reload. When
// no build can be loaded the retriever runs disabled and Retrieve
// returns empty hit lists rather than errors.
type Retriever struct {
	store    driven.BuildStore
	embedder driven.EmbeddingService

	mu   sync.RWMutex
	snap *driven.BuildSnapshot
}

// NewRetriever loads the current build. Missing store, missing
// embedding service, an empty manifest or a corrupt build all yield a
// disabled retriever, never a constructor error.
func NewRetriever(ctx context.Context, store driven.BuildStore, embedder driven.EmbeddingService) *Retriever {
	r := &Retriever{store: store, embedder: embedder}

	if store == nil {
		logger.Warn("Retrieval disabled: no build store")
		return r
	}
	if embedder == nil {
		logger.Warn("Retrieval disabled: no embedding service")
		return r
	}

	r.load(ctx)
	return r
}

// load resolves and loads the current build, leaving the previous
// snapshot in place on failure.
func (r *Retriever) load(ctx context.Context) {
	snap, err := r.store.LoadCurrent(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("Retrieval disabled: store has no current build")
		} else {
			logger.Warn("Retrieval disabled: loading current build: %v", err)
		}
		return
	}

	logger.Debug("Retriever loaded build: %d chunks, dim %d", snap.Index.Len(), snap.Index.Dim())

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
}

// Reload re-resolves the manifest, picking up builds written since
// construction. On failure the previously loaded snapshot keeps
// serving.
func (r *Retriever) Reload(ctx context.Context) {
	if r.store == nil || r.embedder == nil {
		return
	}
	r.load(ctx)
}

// Enabled reports whether a build is loaded.
func (r *Retriever) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap != nil
}

// Retrieve embeds the query and runs top-k search over the loaded
// build. Disabled retrievers return an empty slice and nil error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error) {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	if snap == nil {
		return []domain.RetrievalHit{}, nil
	}

	if k <= 0 {
		k = domain.TopKDefault
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectorHits, err := snap.Index.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]domain.RetrievalHit, 0, len(vectorHits))
	for _, vh := range vectorHits {
		chunk, ok := snap.Metadata[vh.UID]
		if !ok {
			logger.Warn("Hit uid %d has no metadata, skipping", vh.UID)
			continue
		}
		hits = append(hits, domain.RetrievalHit{
			Score:   vh.Score,
			Source:  chunk.Source,
			ChunkID: chunk.ChunkID,
			Text:    chunk.Text,
		})
	}
	return hits, nil
}

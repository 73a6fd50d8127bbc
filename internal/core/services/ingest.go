package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
	"github.com/eras-labs/consilium/internal/core/ports/driving"
	"github.com/eras-labs/consilium/internal/corpus"
	"github.com/eras-labs/consilium/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// IndexFactory creates an empty vector index for a fresh build.
type IndexFactory func() driven.VectorIndex

// IngestorConfig carries the ingestion tunables. Zero values select
// the corpus defaults.
type IngestorConfig struct {
	// CorpusDir is the guideline document directory to scan.
	CorpusDir string
	// ChunkSize is the window width in characters.
	ChunkSize int
	// ChunkOverlap is the window overlap in characters.
	ChunkOverlap int
}

// Ingestor maintains the versioned store: it scans the corpus, diffs
// it against the previous run, applies the changes to a copy of the
// current build and writes the result as a brand-new build before
// advancing the manifest. Ingestion is single-flight; a second
// concurrent run is rejected with domain.ErrIngestInProgress.
type Ingestor struct {
	store    driven.BuildStore
	embedder driven.EmbeddingService
	newIndex IndexFactory
	cfg      IngestorConfig

	running atomic.Bool
}

// NewIngestor creates the ingestion service.
func NewIngestor(store driven.BuildStore, embedder driven.EmbeddingService, newIndex IndexFactory, cfg IngestorConfig) *Ingestor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = corpus.DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = corpus.DefaultChunkOverlap
	}
	return &Ingestor{
		store:    store,
		embedder: embedder,
		newIndex: newIndex,
		cfg:      cfg,
	}
}

// Ingest runs one incremental ingestion pass.
func (s *Ingestor) Ingest(ctx context.Context) (domain.IngestReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.IngestReport{}, domain.ErrIngestInProgress
	}
	defer s.running.Store(false)

	logger.Section("Corpus Ingestion")

	// 1. Scan the corpus and diff against the previous run.
	current, err := corpus.Scan(s.cfg.CorpusDir)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("scan corpus: %w", err)
	}

	previous, err := s.store.Sources()
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("read source manifest: %w", err)
	}

	diff := corpus.Diff(previous, current)
	logger.Info("Corpus diff: %d added, %d updated, %d removed, %d unchanged",
		len(diff.Added), len(diff.Updated), len(diff.Removed), len(diff.Unchanged))

	report := domain.IngestReport{
		Added:     len(diff.Added),
		Updated:   len(diff.Updated),
		Removed:   len(diff.Removed),
		Unchanged: len(diff.Unchanged),
	}

	manifest, err := s.store.Manifest()
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("read manifest: %w", err)
	}

	// 2. Load the current build as the base, or start empty. A build
	// made with different embedding parameters cannot be extended, and
	// an unchanged corpus only skips the run while the current build is
	// both loadable and parameter-compatible.
	snap := s.loadBase(ctx)

	wantConfig := domain.BuildConfig{
		EmbeddingModel: s.embedder.ModelName(),
		Dim:            s.embedder.Dimensions(),
		ChunkSize:      s.cfg.ChunkSize,
		ChunkOverlap:   s.cfg.ChunkOverlap,
	}
	if snap != nil && snap.Config != wantConfig {
		logger.Warn("Embedding config changed (%s/%d -> %s/%d), rebuilding from scratch",
			snap.Config.EmbeddingModel, snap.Config.Dim, wantConfig.EmbeddingModel, wantConfig.Dim)
		snap = nil
	}

	unchanged := len(diff.Added) == 0 && len(diff.Updated) == 0 && len(diff.Removed) == 0
	if unchanged && snap != nil && manifest.CurrentBuildID != "" {
		logger.Info("Corpus unchanged, keeping build %s", manifest.CurrentBuildID)
		report.BuildID = manifest.CurrentBuildID
		return report, nil
	}

	if snap == nil {
		snap = &driven.BuildSnapshot{
			Index:    s.newIndex(),
			Metadata: make(map[int64]domain.Chunk),
			Config:   wantConfig,
		}
		diff = corpus.Diff(nil, current)
		report.Added, report.Updated, report.Removed, report.Unchanged =
			len(diff.Added), len(diff.Updated), len(diff.Removed), len(diff.Unchanged)
	}

	// 3. Drop chunks of removed and updated sources from the base.
	stale := append(append([]string{}, diff.Removed...), diff.Updated...)
	removed, err := s.removeSources(ctx, snap, stale)
	if err != nil {
		return domain.IngestReport{}, err
	}
	report.ChunksRemoved = removed

	// 4. Chunk, embed and insert added and updated sources.
	fresh := append(append([]string{}, diff.Added...), diff.Updated...)
	sort.Strings(fresh)
	added, err := s.addSources(ctx, snap, fresh)
	if err != nil {
		return domain.IngestReport{}, err
	}
	report.ChunksAdded = added

	// 5. Write the new build, then advance the source manifest.
	snap.SourcesCount = len(current)
	buildID, err := s.store.SaveBuild(ctx, *snap)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("save build: %w", err)
	}
	if err := s.store.SaveSources(current); err != nil {
		return domain.IngestReport{}, fmt.Errorf("save source manifest: %w", err)
	}

	report.BuildID = buildID
	logger.Info("Build %s written: %d chunks total (%d added, %d removed)",
		buildID, snap.Index.Len(), report.ChunksAdded, report.ChunksRemoved)
	return report, nil
}

// loadBase loads the current build, or nil when none is loadable. A
// corrupt build degrades to a full rebuild rather than failing the
// run.
func (s *Ingestor) loadBase(ctx context.Context) *driven.BuildSnapshot {
	snap, err := s.store.LoadCurrent(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Current build unusable, rebuilding from scratch: %v", err)
		}
		return nil
	}
	return snap
}

// removeSources deletes every chunk belonging to the given sources
// from the snapshot, index entries included.
func (s *Ingestor) removeSources(ctx context.Context, snap *driven.BuildSnapshot, sources []string) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	drop := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		drop[src] = struct{}{}
	}

	var uids []int64
	for uid, chunk := range snap.Metadata {
		if _, gone := drop[chunk.Source]; gone {
			uids = append(uids, uid)
		}
	}

	removed, err := snap.Index.Delete(ctx, uids)
	if err != nil {
		return 0, fmt.Errorf("delete stale chunks: %w", err)
	}
	for _, uid := range uids {
		delete(snap.Metadata, uid)
	}

	logger.Debug("Removed %d chunks from %d sources", removed, len(sources))
	return removed, nil
}

// addSources reads, chunks, embeds and indexes the given sources.
func (s *Ingestor) addSources(ctx context.Context, snap *driven.BuildSnapshot, sources []string) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	chunker := corpus.NewChunker(
		corpus.WithChunkSize(s.cfg.ChunkSize),
		corpus.WithOverlap(s.cfg.ChunkOverlap),
	)

	total := 0
	for _, source := range sources {
		path := filepath.Join(s.cfg.CorpusDir, filepath.FromSlash(source))
		text, err := corpus.ReadDocument(path)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", source, err)
		}

		chunks := chunker.Chunk(source, text)
		if len(chunks) == 0 {
			logger.Debug("%s: no chunks, skipping", source)
			continue
		}

		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed %s: %w", source, err)
		}
		if len(embeddings) != len(chunks) {
			return 0, fmt.Errorf("embed %s: got %d vectors for %d chunks", source, len(embeddings), len(chunks))
		}

		for i, chunk := range chunks {
			if err := snap.Index.Add(ctx, chunk.UID, embeddings[i]); err != nil {
				return 0, fmt.Errorf("index %s chunk %d: %w", source, chunk.ChunkID, err)
			}
			snap.Metadata[chunk.UID] = chunk
		}

		logger.Debug("%s: %d chunks indexed", source, len(chunks))
		total += len(chunks)
	}

	return total, nil
}

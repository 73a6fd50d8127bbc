package driven

import (
	"context"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// BuildSnapshot bundles the artifacts of one build: the serialized
// index, the uid → chunk metadata map, and the embedding config the
// build was created with.
type BuildSnapshot struct {
	Index        VectorIndex
	Metadata     map[int64]domain.Chunk
	Config       domain.BuildConfig
	SourcesCount int
}

// BuildStore is the versioned on-disk store of index snapshots.
// Writers follow the write-new-build-then-swap-pointer discipline:
// SaveBuild materialises a complete build directory first and only
// then atomically advances the manifest's current pointer, so a reader
// never observes a half-written build and old builds remain for
// rollback. The store is single-writer; concurrent ingestion must be
// serialized by the caller.
type BuildStore interface {
	// Manifest reads the manifest. A store with no manifest yet yields
	// an empty manifest, not an error.
	Manifest() (domain.Manifest, error)

	// Sources reads the persisted source → content-hash map used to
	// diff the corpus between ingestion runs.
	Sources() (domain.SourceManifest, error)

	// SaveSources persists the source manifest.
	SaveSources(sources domain.SourceManifest) error

	// SaveBuild writes a new immutable build directory and advances the
	// manifest pointer to it. Returns the new build id.
	SaveBuild(ctx context.Context, snap BuildSnapshot) (string, error)

	// LoadBuild loads one build by id. Returns domain.ErrNotFound if the
	// build directory does not exist.
	LoadBuild(ctx context.Context, buildID string) (*BuildSnapshot, error)

	// LoadCurrent loads the build the manifest currently points to.
	// Returns domain.ErrNotFound when the manifest has no current build.
	LoadCurrent(ctx context.Context) (*BuildSnapshot, error)

	// Root returns the store root directory.
	Root() string
}

package domain

// BuildInfo records one immutable index snapshot.
type BuildInfo struct {
	// CreatedAt is the build's creation time, RFC 3339.
	CreatedAt string `json:"created_at"`

	// SourcesCount is the number of corpus documents in the build.
	SourcesCount int `json:"sources_count"`
}

// Manifest is the pointer record naming the active build. It is
// mutated only by ingestion and read by every retriever at
// construction.
type Manifest struct {
	// CurrentBuildID names the active build, empty when no build exists.
	CurrentBuildID string `json:"current_build_id"`

	// Builds maps build id to its record. Builds accumulate; old ones
	// are kept for rollback.
	Builds map[string]BuildInfo `json:"builds"`
}

// SourceManifest maps corpus-relative source paths to their content
// hash. Ingestion diffs it against a fresh scan to classify sources.
type SourceManifest map[string]string

// BuildConfig pins the embedding parameters a build was created with.
// Stored beside the index so a loaded build can reject mismatched
// queries.
type BuildConfig struct {
	EmbeddingModel string `json:"embedding_model"`
	Dim            int    `json:"dim"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
}

// SourceDiff classifies the corpus against the previous ingestion run.
type SourceDiff struct {
	Added     []string
	Updated   []string
	Unchanged []string
	Removed   []string
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	BuildID       string `json:"build_id"`
	Added         int    `json:"added"`
	Updated       int    `json:"updated"`
	Removed       int    `json:"removed"`
	Unchanged     int    `json:"unchanged"`
	ChunksAdded   int    `json:"chunks_added"`
	ChunksRemoved int    `json:"chunks_removed"`
}

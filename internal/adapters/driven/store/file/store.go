// Package file implements the versioned on-disk build store.
//
// Layout under the store root:
//
//	manifest.json      {current_build_id, builds}
//	sources.json       source path → content hash
//	builds/<id>/       one immutable directory per build:
//	    index.flat     serialized vector index
//	    metadata.json  uid → chunk record
//	    config.json    embedding model, dim, chunk size/overlap
//
// A build directory is materialised completely (written to a temp
// directory, then renamed) before the manifest pointer advances to it,
// and the manifest itself is replaced via temp-file + rename. Readers
// therefore never observe a half-written build or a torn manifest, and
// superseded builds stay on disk for rollback.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/eras-labs/consilium/internal/adapters/driven/index/flat"
	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BuildStore = (*Store)(nil)

// On-disk names.
const (
	manifestFile = "manifest.json"
	sourcesFile  = "sources.json"
	buildsDir    = "builds"
	indexFile    = "index.flat"
	metadataFile = "metadata.json"
	configFile   = "config.json"
)

// buildIDLayout is the timestamp format for build ids.
const buildIDLayout = "20060102_150405"

// Store is a file-backed BuildStore rooted at a single directory.
type Store struct {
	root string
}

// New creates a store rooted at dir, creating the directory tree if
// needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: root directory cannot be empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, buildsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Manifest reads the manifest. A store with no manifest yet yields an
// empty manifest.
func (s *Store) Manifest() (domain.Manifest, error) {
	manifest := domain.Manifest{Builds: map[string]domain.BuildInfo{}}

	data, err := os.ReadFile(filepath.Join(s.root, manifestFile))
	if os.IsNotExist(err) {
		return manifest, nil
	}
	if err != nil {
		return manifest, fmt.Errorf("read manifest: %w", err)
	}

	if err := json.Unmarshal(data, &manifest); err != nil {
		return domain.Manifest{Builds: map[string]domain.BuildInfo{}}, fmt.Errorf("decode manifest: %w", err)
	}
	if manifest.Builds == nil {
		manifest.Builds = map[string]domain.BuildInfo{}
	}
	return manifest, nil
}

// Sources reads the persisted source → content-hash map.
func (s *Store) Sources() (domain.SourceManifest, error) {
	sources := domain.SourceManifest{}

	data, err := os.ReadFile(filepath.Join(s.root, sourcesFile))
	if os.IsNotExist(err) {
		return sources, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return sources, nil
}

// SaveSources persists the source manifest.
func (s *Store) SaveSources(sources domain.SourceManifest) error {
	return s.writeJSONAtomic(filepath.Join(s.root, sourcesFile), sources)
}

// SaveBuild writes a complete new build directory, then advances the
// manifest pointer to it. Returns the new build id.
func (s *Store) SaveBuild(_ context.Context, snap driven.BuildSnapshot) (string, error) {
	if snap.Index == nil {
		return "", errors.New("store: snapshot has no index")
	}

	buildID, err := s.nextBuildID()
	if err != nil {
		return "", err
	}

	// 1. Materialise the build in a temp directory beside its final home.
	tmpDir := filepath.Join(s.root, buildsDir, ".tmp-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create build temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := s.writeIndex(filepath.Join(tmpDir, indexFile), snap.Index); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(tmpDir, metadataFile), snap.Metadata); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeJSON(filepath.Join(tmpDir, configFile), snap.Config); err != nil {
		return "", fmt.Errorf("write build config: %w", err)
	}

	// 2. Move the finished directory into place.
	finalDir := filepath.Join(s.root, buildsDir, buildID)
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return "", fmt.Errorf("publish build dir: %w", err)
	}

	// 3. Only now advance the pointer.
	manifest, err := s.Manifest()
	if err != nil {
		return "", err
	}
	manifest.CurrentBuildID = buildID
	manifest.Builds[buildID] = domain.BuildInfo{
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		SourcesCount: snap.SourcesCount,
	}
	if err := s.writeJSONAtomic(filepath.Join(s.root, manifestFile), manifest); err != nil {
		return "", fmt.Errorf("advance manifest: %w", err)
	}

	return buildID, nil
}

// LoadBuild loads one build by id.
func (s *Store) LoadBuild(_ context.Context, buildID string) (*driven.BuildSnapshot, error) {
	dir := filepath.Join(s.root, buildsDir, buildID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("build %s: %w", buildID, domain.ErrNotFound)
	}

	f, err := os.Open(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	idx, err := flat.Read(f)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	snap := &driven.BuildSnapshot{Index: idx, Metadata: map[int64]domain.Chunk{}}

	if err := readJSON(filepath.Join(dir, metadataFile), &snap.Metadata); err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	if err := readJSON(filepath.Join(dir, configFile), &snap.Config); err != nil {
		return nil, fmt.Errorf("load build config: %w", err)
	}
	snap.SourcesCount = countSources(snap.Metadata)

	return snap, nil
}

// LoadCurrent loads the build the manifest currently points to.
func (s *Store) LoadCurrent(ctx context.Context) (*driven.BuildSnapshot, error) {
	manifest, err := s.Manifest()
	if err != nil {
		return nil, err
	}
	if manifest.CurrentBuildID == "" {
		return nil, fmt.Errorf("no current build: %w", domain.ErrNotFound)
	}
	return s.LoadBuild(ctx, manifest.CurrentBuildID)
}

// nextBuildID derives a fresh timestamp id, suffixing when a build
// from the same second already exists.
func (s *Store) nextBuildID() (string, error) {
	base := time.Now().Format(buildIDLayout)
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(s.root, buildsDir, id)); os.IsNotExist(err) {
			return id, nil
		} else if err != nil {
			return "", fmt.Errorf("check build id: %w", err)
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func (s *Store) writeIndex(path string, idx driven.VectorIndex) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if _, err := idx.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("serialize index: %w", err)
	}
	return f.Close()
}

// writeJSONAtomic replaces path via temp file + rename so readers
// never observe a torn file.
func (s *Store) writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func countSources(metadata map[int64]domain.Chunk) int {
	seen := map[string]struct{}{}
	for _, chunk := range metadata {
		seen[chunk.Source] = struct{}{}
	}
	return len(seen)
}

package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// Scan walks the corpus directory and returns a map of corpus-relative
// path → sha256 content hash for every supported document. Hidden
// files and directories are skipped, as is anything with an
// unsupported extension. A missing corpus directory yields an empty
// manifest, not an error.
func Scan(root string) (domain.SourceManifest, error) {
	sources := domain.SourceManifest{}

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return sources, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat corpus dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path is not a directory: %s", root)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !IsSupported(path) {
			return nil
		}

		hash, err := HashFile(path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativise %s: %w", path, err)
		}
		sources[filepath.ToSlash(rel)] = hash
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}

	return sources, nil
}

// HashFile computes the sha256 of a file, streaming so large documents
// never load fully into memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Diff classifies a fresh scan against the previously persisted
// manifest into added / updated / unchanged / removed sources.
func Diff(previous, current domain.SourceManifest) domain.SourceDiff {
	var diff domain.SourceDiff

	for path, hash := range current {
		prev, ok := previous[path]
		switch {
		case !ok:
			diff.Added = append(diff.Added, path)
		case prev != hash:
			diff.Updated = append(diff.Updated, path)
		default:
			diff.Unchanged = append(diff.Unchanged, path)
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			diff.Removed = append(diff.Removed, path)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Updated)
	sort.Strings(diff.Unchanged)
	sort.Strings(diff.Removed)
	return diff
}

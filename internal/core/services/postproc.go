package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// Post-processing defaults applied to retrieval hits before they are
// rendered into prompts.
const (
	// DefaultMinChars drops hits whose text is shorter than this.
	DefaultMinChars = 120
	// DefaultPerSourceCap bounds how many hits a single source may
	// contribute.
	DefaultPerSourceCap = 3
)

// FilterAndDedupeHits drops hits shorter than minChars, dedupes by
// (source, chunk_id) keeping the first occurrence, and caps hits per
// source, all preserving encounter order. The function is idempotent:
// applying it twice yields the same result as once.
func FilterAndDedupeHits(hits []domain.RetrievalHit, minChars, perSourceCap int) []domain.RetrievalHit {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	if perSourceCap <= 0 {
		perSourceCap = DefaultPerSourceCap
	}

	seen := make(map[domain.CitationKey]struct{}, len(hits))
	perSource := make(map[string]int)
	result := make([]domain.RetrievalHit, 0, len(hits))

	for _, hit := range hits {
		if utf8.RuneCountInString(hit.Text) < minChars {
			continue
		}

		key := hit.Key()
		if _, dup := seen[key]; dup {
			continue
		}

		if perSource[hit.Source] >= perSourceCap {
			continue
		}

		seen[key] = struct{}{}
		perSource[hit.Source]++
		result = append(result, hit)
	}

	return result
}

// FormatHitsContext renders hits as the enumerated evidence block
// embedded in prompts. Each entry is annotated with the (source,
// chunk_id) pair the citation guard later validates against.
func FormatHitsContext(hits []domain.RetrievalHit) string {
	if len(hits) == 0 {
		return "No relevant context found."
	}

	var b strings.Builder
	b.WriteString("Available evidence from clinical guidelines:")
	for i, hit := range hits {
		fmt.Fprintf(&b, "\n\n[%d] (source=%s chunk_id=%d)\n%s",
			i+1, hit.Source, hit.ChunkID, cleanTextForPrompt(hit.Text))
	}
	return b.String()
}

// cleanTextForPrompt collapses runs of whitespace and strips control
// characters so chunk text cannot break prompt structure.
func cleanTextForPrompt(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")

	var b strings.Builder
	b.Grow(len(collapsed))
	for _, r := range collapsed {
		if r >= 32 || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

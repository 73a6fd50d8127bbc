package services

import (
	"fmt"
	"strings"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// repairHitTextLimit bounds how much chunk text a repair prompt quotes
// per hit.
const repairHitTextLimit = 100

// ValidateCitations checks every citation against the hit set used for
// this generation. An empty citation list always fails; otherwise each
// citation must name a (source, chunk_id) pair present in hits. The
// returned slice is nil when all citations are valid.
func ValidateCitations(citations []domain.CitationRef, hits []domain.RetrievalHit) []string {
	if len(citations) == 0 {
		return []string{domain.ErrNoCitations.Error()}
	}

	valid := make(map[domain.CitationKey]struct{}, len(hits))
	for _, hit := range hits {
		valid[hit.Key()] = struct{}{}
	}

	var errs []string
	for i, cit := range citations {
		if _, ok := valid[cit.Key()]; !ok {
			errs = append(errs, fmt.Sprintf(
				"citation %d references invalid hit: source=%s, chunk_id=%d",
				i, cit.Source, cit.ChunkID))
		}
	}
	return errs
}

// BuildRepairPrompt constructs the single retry prompt sent after a
// parse or citation failure. It restates the schema, enumerates the
// current hits as the only acceptable citation targets, and re-embeds
// the original task.
func BuildRepairPrompt(originalTask string, hits []domain.RetrievalHit, schemaJSON string) string {
	var hitLines []string
	for i, hit := range hits {
		hitLines = append(hitLines, fmt.Sprintf(
			"  %d. source=%s, chunk_id=%d, text=%s...",
			i+1, hit.Source, hit.ChunkID, truncateRunes(hit.Text, repairHitTextLimit)))
	}
	hitsText := strings.Join(hitLines, "\n")

	return fmt.Sprintf(`Your previous response did not meet the requirements. Please fix it.

REQUIREMENTS:
1. Output must be valid JSON matching this schema:
%s

2. You MUST include at least one citation from the following available hits:
%s

3. Each citation must have both "source" and "chunk_id" matching exactly one of the hits above.

ORIGINAL TASK:
%s

Please provide a corrected response that follows the schema and uses valid citations from the hits list above.`,
		schemaJSON, hitsText, originalTask)
}

// truncateRunes shortens s to at most n characters.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

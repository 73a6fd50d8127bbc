package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eras-labs/consilium/internal/core/domain"
)

func testHits() []domain.RetrievalHit {
	return []domain.RetrievalHit{
		makeHit("ponv.md", 0, "Ondansetron 4 mg IV is first-line for established PONV."),
		makeHit("ponv.md", 2, "Dexamethasone at induction reduces late nausea."),
		makeHit("chest_tube.md", 1, "Remove the drain when output falls below threshold."),
	}
}

func TestValidateCitations_AllValid(t *testing.T) {
	citations := []domain.CitationRef{
		{Source: "ponv.md", ChunkID: 0},
		{Source: "chest_tube.md", ChunkID: 1},
	}

	assert.Nil(t, ValidateCitations(citations, testHits()))
}

func TestValidateCitations_EmptyAlwaysFails(t *testing.T) {
	errs := ValidateCitations(nil, testHits())

	require.Len(t, errs, 1)
	assert.Equal(t, domain.ErrNoCitations.Error(), errs[0])
}

func TestValidateCitations_EmptyFailsEvenWithoutHits(t *testing.T) {
	errs := ValidateCitations([]domain.CitationRef{}, nil)

	require.Len(t, errs, 1)
	assert.Equal(t, domain.ErrNoCitations.Error(), errs[0])
}

func TestValidateCitations_UnknownPair(t *testing.T) {
	citations := []domain.CitationRef{
		{Source: "ponv.md", ChunkID: 0},
		{Source: "ponv.md", ChunkID: 99},
	}

	errs := ValidateCitations(citations, testHits())

	require.Len(t, errs, 1)
	assert.Equal(t, "citation 1 references invalid hit: source=ponv.md, chunk_id=99", errs[0])
}

func TestValidateCitations_SourceMismatch(t *testing.T) {
	// chunk_id 0 exists, but only for ponv.md.
	citations := []domain.CitationRef{{Source: "pod.md", ChunkID: 0}}

	errs := ValidateCitations(citations, testHits())

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "source=pod.md, chunk_id=0")
}

func TestValidateCitations_ReportsEveryBadCitation(t *testing.T) {
	citations := []domain.CitationRef{
		{Source: "made_up.md", ChunkID: 1},
		{Source: "ponv.md", ChunkID: 0},
		{Source: "ponv.md", ChunkID: 42},
	}

	errs := ValidateCitations(citations, testHits())

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "citation 0 ")
	assert.Contains(t, errs[1], "citation 2 ")
}

func TestBuildRepairPrompt_ContainsAllSections(t *testing.T) {
	task := "You are a SURGEON providing clinical decision support."

	prompt := BuildRepairPrompt(task, testHits(), agentSchemaJSON)

	assert.True(t, strings.HasPrefix(prompt, "Your previous response did not meet the requirements."))
	assert.Contains(t, prompt, "REQUIREMENTS:")
	assert.Contains(t, prompt, agentSchemaJSON)
	assert.Contains(t, prompt, "ORIGINAL TASK:\n"+task)
}

func TestBuildRepairPrompt_EnumeratesHits(t *testing.T) {
	prompt := BuildRepairPrompt("task", testHits(), agentSchemaJSON)

	assert.Contains(t, prompt, "  1. source=ponv.md, chunk_id=0, text=Ondansetron 4 mg IV is first-line for established PONV....")
	assert.Contains(t, prompt, "  2. source=ponv.md, chunk_id=2,")
	assert.Contains(t, prompt, "  3. source=chest_tube.md, chunk_id=1,")
}

func TestBuildRepairPrompt_TruncatesLongHitText(t *testing.T) {
	long := strings.Repeat("guideline ", 30)
	hits := []domain.RetrievalHit{makeHit("ponv.md", 0, long)}

	prompt := BuildRepairPrompt("task", hits, agentSchemaJSON)

	assert.Contains(t, prompt, "text="+long[:repairHitTextLimit]+"...")
	assert.NotContains(t, prompt, long)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "abc", truncateRunes("abcde", 3))
	assert.Equal(t, "éé", truncateRunes("ééé", 2))
}

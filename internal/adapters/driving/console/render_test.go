package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eras-labs/consilium/internal/core/domain"
)

func TestRenderDecision_AllSections(t *testing.T) {
	resp := domain.DecisionResponse{
		FinalRecommendation: "Remove the chest tube.",
		FinalActions:        []string{"clamp trial not required", "remove at end of expiration"},
		KeyReasons:          []string{"drain output below threshold"},
		RisksAndNotes:       []string{"recurrent pneumothorax"},
		MissingData:         []string{"fluid_quality"},
		Conflicts:           []string{"nurse favours observation for another day"},
		Citations: []domain.Citation{
			{Source: "chest_tube_management.md", ChunkID: 4, Text: "drainage volume below the institutional threshold"},
		},
		Agents: []domain.AgentReport{
			{Name: domain.RoleSurgeon, Decision: domain.AgentDecision{Recommendation: "Remove the tube."}},
			{Name: domain.RoleNurse, Error: "schema_invalid_after_retry"},
		},
		Metrics: domain.Metrics{
			LatencyMS:   842,
			TraceID:     "01J5XCLTRACE",
			Scenario:    domain.ScenarioChestTube,
			BackendName: "ollama",
			HitsCount:   6,
			Errors:      []string{"agent NURSE failed"},
		},
	}

	out := renderDecision(DefaultStyles(), resp, 80)

	assert.Contains(t, out, "Remove the chest tube.")
	assert.Contains(t, out, "1. clamp trial not required")
	assert.Contains(t, out, "2. remove at end of expiration")
	assert.Contains(t, out, "drain output below threshold")
	assert.Contains(t, out, "recurrent pneumothorax")
	assert.Contains(t, out, "fluid_quality")
	assert.Contains(t, out, "[chest_tube_management.md #4]")
	assert.Contains(t, out, "SURGEON")
	assert.Contains(t, out, "schema_invalid_after_retry")
	assert.Contains(t, out, "01J5XCLTRACE")
	assert.Contains(t, out, "842 ms")
	assert.Contains(t, out, "agent NURSE failed")
}

func TestRenderDecision_MinimalResponse(t *testing.T) {
	resp := domain.DecisionResponse{
		FinalRecommendation: domain.RecommendationInsufficientData,
		MissingData:         []string{"air_leak_present"},
		Metrics:             domain.Metrics{TraceID: "t-1", Scenario: domain.ScenarioChestTube},
	}

	out := renderDecision(DefaultStyles(), resp, 80)

	assert.Contains(t, out, domain.RecommendationInsufficientData)
	assert.Contains(t, out, "air_leak_present")
	assert.NotContains(t, out, "Actions")
	assert.NotContains(t, out, "Citations")
}

func TestRenderDecision_TruncatesLongCitations(t *testing.T) {
	long := strings.Repeat("evidence ", 100)
	resp := domain.DecisionResponse{
		FinalRecommendation: "ok",
		Citations:           []domain.Citation{{Source: "doc.md", ChunkID: 1, Text: long}},
	}

	out := renderDecision(DefaultStyles(), resp, 200)

	assert.Contains(t, out, "...")
	assert.NotContains(t, out, long)
}

func TestRenderHits_Empty(t *testing.T) {
	out := renderHits(DefaultStyles(), "ondansetron", nil, 80)

	assert.Contains(t, out, "No evidence found")
	assert.Contains(t, out, "ondansetron")
}

func TestRenderHits_List(t *testing.T) {
	hits := []domain.RetrievalHit{
		{Score: 0.913, Source: "ponv_prophylaxis.md", ChunkID: 2, Text: "ondansetron 4 mg IV"},
		{Score: 0.871, Source: "postoperative_delirium.md", ChunkID: 0, Text: "Nu-DESC"},
	}

	out := renderHits(DefaultStyles(), "antiemetic", hits, 80)

	assert.Contains(t, out, "2 hits")
	assert.Contains(t, out, "[1] ponv_prophylaxis.md #2 (0.913)")
	assert.Contains(t, out, "[2] postoperative_delirium.md #0 (0.871)")
	assert.Contains(t, out, "ondansetron 4 mg IV")
}

func TestBulleted(t *testing.T) {
	out := bulleted([]string{"one", "two"})

	assert.Equal(t, "• one\n• two", out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("", 5))
}

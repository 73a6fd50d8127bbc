package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eras-labs/consilium/internal/core/domain"
)

func TestInferScenario_ExplicitWins(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		want     domain.Scenario
	}{
		{"exact", "PONV", domain.ScenarioPONV},
		{"lowercase", "pod", domain.ScenarioPOD},
		{"mixed case", "Chest_Tube", domain.ScenarioChestTube},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Question keywords would route elsewhere; explicit wins.
			got := InferScenario(tt.explicit, "patient is confused after surgery", nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferScenario_InvalidExplicitFallsThrough(t *testing.T) {
	got := InferScenario("CARDIAC", "patient has nausea and vomiting after surgery", nil)
	assert.Equal(t, domain.ScenarioPONV, got)

	got = InferScenario("UNKNOWN", "persistent air leak on the pleural drain", nil)
	assert.Equal(t, domain.ScenarioChestTube, got)
}

func TestInferScenario_QuestionKeywords(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     domain.Scenario
	}{
		{"ponv keyword", "How should we manage PONV here?", domain.ScenarioPONV},
		{"nausea", "patient has nausea and vomiting after surgery", domain.ScenarioPONV},
		{"delirium", "patient shows signs of delirium overnight", domain.ScenarioPOD},
		{"cognitive", "new cognitive changes on day two", domain.ScenarioPOD},
		{"chest tube", "can we remove the chest tube today?", domain.ScenarioChestTube},
		{"pleural", "pleural drainage is decreasing", domain.ScenarioChestTube},
		{"no match", "should the patient be discharged tomorrow?", domain.ScenarioUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferScenario("", tt.question, nil))
		})
	}
}

func TestInferScenario_KeywordOrderIsFixed(t *testing.T) {
	// Both PONV and POD keywords present; PONV is tested first.
	got := InferScenario("", "confusion with nausea overnight", nil)
	assert.Equal(t, domain.ScenarioPONV, got)
}

func TestInferScenario_PayloadKeys(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    domain.Scenario
	}{
		{"nausea score", map[string]any{"nausea_score": 7}, domain.ScenarioPONV},
		{"vomiting episodes", map[string]any{"vomiting_episodes": 2}, domain.ScenarioPONV},
		{"nu_desc", map[string]any{"nu_desc": map[string]any{}}, domain.ScenarioPOD},
		{"cam score", map[string]any{"cam_score": 1}, domain.ScenarioPOD},
		{"drain output", map[string]any{"drain_output_ml_24h": 300}, domain.ScenarioChestTube},
		{"tube days", map[string]any{"chest_tube_days": 4}, domain.ScenarioChestTube},
		{"unrelated keys", map[string]any{"heart_rate": 80}, domain.ScenarioUnknown},
		{"empty payload", map[string]any{}, domain.ScenarioUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferScenario("", "generic follow-up question", tt.payload))
		})
	}
}

func TestInferScenario_QuestionBeatsPayload(t *testing.T) {
	// The question names delirium; the payload looks like chest tube.
	got := InferScenario("", "worsening confusion tonight", map[string]any{"drain_output_ml_24h": 500})
	assert.Equal(t, domain.ScenarioPOD, got)
}

package services

import (
	"strings"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// Keyword and payload-key tables used to infer a scenario when none is
// given explicitly. Scenarios are tested in the order PONV, POD,
// CHEST_TUBE; the first match wins.
var (
	scenarioKeywords = map[domain.Scenario][]string{
		domain.ScenarioPONV:      {"ponv", "postoperative nausea", "nausea", "vomiting"},
		domain.ScenarioPOD:       {"pod", "delirium", "confusion", "cognitive"},
		domain.ScenarioChestTube: {"chest tube", "drain", "pleural", "thoracic"},
	}

	scenarioPayloadKeys = map[domain.Scenario][]string{
		domain.ScenarioPONV:      {"nausea_score", "vomiting_episodes"},
		domain.ScenarioPOD:       {"nu_desc", "cam_score"},
		domain.ScenarioChestTube: {"drain_output_ml_24h", "chest_tube_days"},
	}
)

// InferScenario resolves the clinical scenario for a request with
// deterministic precedence: an explicit scenario wins if it names a
// known one (case-insensitive); else the question text is matched
// against fixed per-scenario keyword sets; else the patient payload is
// checked for scenario-specific keys; else UNKNOWN.
func InferScenario(explicit, question string, patientData map[string]any) domain.Scenario {
	if explicit != "" {
		if s := domain.ParseScenario(explicit); s.IsKnown() {
			return s
		}
	}

	questionLower := strings.ToLower(question)
	for _, scenario := range domain.KnownScenarios {
		for _, kw := range scenarioKeywords[scenario] {
			if strings.Contains(questionLower, kw) {
				return scenario
			}
		}
	}

	if len(patientData) > 0 {
		for _, scenario := range domain.KnownScenarios {
			for _, key := range scenarioPayloadKeys[scenario] {
				if _, ok := patientData[key]; ok {
					return scenario
				}
			}
		}
	}

	return domain.ScenarioUnknown
}

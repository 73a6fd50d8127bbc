package domain

import "strings"

// Scenario identifies a supported clinical scenario.
type Scenario string

const (
	// ScenarioPONV is postoperative nausea and vomiting.
	ScenarioPONV Scenario = "PONV"
	// ScenarioPOD is postoperative delirium.
	ScenarioPOD Scenario = "POD"
	// ScenarioChestTube is chest tube management after thoracic surgery.
	ScenarioChestTube Scenario = "CHEST_TUBE"
	// ScenarioUnknown is returned when no scenario can be inferred.
	ScenarioUnknown Scenario = "UNKNOWN"
)

// KnownScenarios lists the scenarios the system can handle, in the
// fixed order used for keyword and payload inference.
var KnownScenarios = []Scenario{ScenarioPONV, ScenarioPOD, ScenarioChestTube}

// ParseScenario maps a free-form value to a known scenario.
// Matching is case-insensitive; anything unrecognised maps to
// ScenarioUnknown.
func ParseScenario(value string) Scenario {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(ScenarioPONV):
		return ScenarioPONV
	case string(ScenarioPOD):
		return ScenarioPOD
	case string(ScenarioChestTube):
		return ScenarioChestTube
	default:
		return ScenarioUnknown
	}
}

// IsKnown returns true for the three handled scenarios.
func (s Scenario) IsKnown() bool {
	return s == ScenarioPONV || s == ScenarioPOD || s == ScenarioChestTube
}

// String returns the canonical scenario label.
func (s Scenario) String() string {
	return string(s)
}

package services

import (
	"fmt"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// DefaultThresholdML24h is the chest-tube drain output threshold
// injected into the payload when the caller omits it.
const DefaultThresholdML24h = 450

// nuDescItems are the Nu-DESC components scored 0-2, besides the
// illusions item which accepts two spellings.
var nuDescItems = []string{
	"disorientation",
	"inappropriate_behavior",
	"inappropriate_communication",
	"psychomotor_retardation",
}

// fluidQualities are the accepted chest-tube fluid descriptions.
var fluidQualities = []string{"serous", "serosanguineous", "bloody", "other"}

// ValidateInputs runs the scenario-specific structural check on the
// patient payload. The result is ok only when both missing and errors
// are empty. For CHEST_TUBE, a missing threshold_ml_24h is injected
// into patientData with the given threshold (DefaultThresholdML24h
// when thresholdML24h is not positive); this is the one place the
// payload is mutated.
func ValidateInputs(scenario domain.Scenario, patientData map[string]any, thresholdML24h int) domain.ValidationResult {
	if thresholdML24h <= 0 {
		thresholdML24h = DefaultThresholdML24h
	}

	missing := []string{}
	errs := []string{}

	switch scenario {
	case domain.ScenarioPOD:
		missing, errs = validatePOD(patientData)

	case domain.ScenarioChestTube:
		missing, errs = validateChestTube(patientData, thresholdML24h)

	case domain.ScenarioPONV:
		missing, errs = validatePONV(patientData)
	}

	return domain.ValidationResult{
		OK:      len(missing) == 0 && len(errs) == 0,
		Missing: missing,
		Errors:  errs,
	}
}

// validatePOD checks the Nu-DESC score map plus surgery duration.
func validatePOD(patientData map[string]any) (missing, errs []string) {
	missing = []string{}
	errs = []string{}

	raw, ok := patientData["nu_desc"]
	if !ok {
		missing = append(missing, "nu_desc")
	} else if nuDesc, isMap := raw.(map[string]any); !isMap {
		errs = append(errs, "nu_desc must be an object")
	} else {
		for _, item := range nuDescItems {
			score, present := nuDesc[item]
			if !present {
				missing = append(missing, "nu_desc."+item)
				continue
			}
			if n, isInt := asInt(score); !isInt || n < 0 || n > 2 {
				errs = append(errs, fmt.Sprintf("nu_desc.%s must be integer 0-2, got %v", item, score))
			}
		}

		// Two spellings are accepted for the illusions item.
		illusionsKey := ""
		if _, present := nuDesc["illusions_hallucinations"]; present {
			illusionsKey = "illusions_hallucinations"
		} else if _, present := nuDesc["illusions"]; present {
			illusionsKey = "illusions"
		}

		if illusionsKey == "" {
			missing = append(missing, "nu_desc.illusions_hallucinations (or nu_desc.illusions)")
		} else if n, isInt := asInt(nuDesc[illusionsKey]); !isInt || n < 0 || n > 2 {
			errs = append(errs, fmt.Sprintf("nu_desc.%s must be integer 0-2, got %v", illusionsKey, nuDesc[illusionsKey]))
		}
	}

	missing, errs = checkSurgeryDuration(patientData, missing, errs)
	return missing, errs
}

// chestTubeField describes one required chest-tube payload field.
type chestTubeField struct {
	name string
	kind string // "bool", "int" or "string"
}

// chestTubeFields lists the required fields in validation order.
var chestTubeFields = []chestTubeField{
	{"air_leak_present", "bool"},
	{"drain_output_ml_24h", "int"},
	{"fluid_quality", "string"},
	{"active_bleeding_suspected", "bool"},
	{"lung_expanded", "bool"},
	{"threshold_ml_24h", "int"},
}

// validateChestTube checks the chest tube removal fields, injecting
// the output threshold default when absent.
func validateChestTube(patientData map[string]any, thresholdML24h int) (missing, errs []string) {
	missing = []string{}
	errs = []string{}

	for _, field := range chestTubeFields {
		val, present := patientData[field.name]
		if !present {
			if field.name == "threshold_ml_24h" {
				patientData[field.name] = thresholdML24h
				continue
			}
			missing = append(missing, field.name)
			continue
		}

		switch field.kind {
		case "int":
			if n, isInt := asInt(val); !isInt || n < 0 {
				errs = append(errs, fmt.Sprintf("%s must be non-negative integer, got %v", field.name, val))
			}
		case "bool":
			if _, isBool := val.(bool); !isBool {
				errs = append(errs, fmt.Sprintf("%s must be boolean, got %v", field.name, val))
			}
		case "string":
			str, isStr := val.(string)
			if !isStr {
				errs = append(errs, fmt.Sprintf("%s must be string, got %v", field.name, val))
			} else if field.name == "fluid_quality" && !containsString(fluidQualities, str) {
				errs = append(errs, "fluid_quality must be one of: serous, serosanguineous, bloody, other")
			}
		}
	}

	return missing, errs
}

// ponvFields are the Koivuranta risk factors, all booleans.
var ponvFields = []string{"female", "non_smoker", "hx_ponv", "hx_motion_sickness"}

// validatePONV checks the Koivuranta score inputs.
func validatePONV(patientData map[string]any) (missing, errs []string) {
	missing = []string{}
	errs = []string{}

	for _, field := range ponvFields {
		val, present := patientData[field]
		if !present {
			missing = append(missing, field)
			continue
		}
		if _, isBool := val.(bool); !isBool {
			errs = append(errs, fmt.Sprintf("%s must be boolean, got %v", field, val))
		}
	}

	missing, errs = checkSurgeryDuration(patientData, missing, errs)
	return missing, errs
}

// checkSurgeryDuration validates the shared surgery_duration_min field.
func checkSurgeryDuration(patientData map[string]any, missing, errs []string) ([]string, []string) {
	val, present := patientData["surgery_duration_min"]
	if !present {
		return append(missing, "surgery_duration_min"), errs
	}
	if n, isInt := asInt(val); !isInt || n < 0 {
		errs = append(errs, fmt.Sprintf("surgery_duration_min must be non-negative integer, got %v", val))
	}
	return missing, errs
}

// asInt reports whether v holds an integral number. JSON decoding
// yields float64 for all numbers, so integral floats count.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int64(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

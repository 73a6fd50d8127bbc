package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// JSON extraction patterns. A fenced code block wins over a bare
// brace-delimited span; the bare pattern is greedy, first { to last }.
var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSONPattern   = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls a JSON object out of raw model output that may be
// wrapped in markdown or prose. Returns empty when no candidate object
// is found.
func ExtractJSON(text string) string {
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return bareJSONPattern.FindString(text)
}

// ParseAgentDecision parses and strictly validates an agent decision
// from raw model output. Failures are classified as
// domain.ErrNoJSON, domain.ErrJSONDecode or domain.ErrSchemaValidation,
// each wrapped with a human-readable detail.
func ParseAgentDecision(raw string) (*domain.AgentDecision, error) {
	var decision domain.AgentDecision
	if err := parseDecision(raw, &decision, []string{"recommendation", "citations"}); err != nil {
		return nil, err
	}
	return &decision, nil
}

// ParseArbiterDecision parses and strictly validates an arbiter
// decision from raw model output. Failure classification matches
// ParseAgentDecision.
func ParseArbiterDecision(raw string) (*domain.ArbiterDecision, error) {
	var decision domain.ArbiterDecision
	if err := parseDecision(raw, &decision, []string{"final_recommendation", "citations"}); err != nil {
		return nil, err
	}
	return &decision, nil
}

// parseDecision extracts, decodes and validates one decision object.
// The probe pass catches syntax errors and missing required keys; the
// strict pass rejects unknown fields and wrong types.
func parseDecision(raw string, dst any, required []string) error {
	jsonStr := ExtractJSON(raw)
	if jsonStr == "" {
		return domain.ErrNoJSON
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &probe); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrJSONDecode, err)
	}

	for _, field := range required {
		if _, ok := probe[field]; !ok {
			return fmt.Errorf("%w: missing required field %q", domain.ErrSchemaValidation, field)
		}
	}

	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSchemaValidation, err)
	}
	return nil
}

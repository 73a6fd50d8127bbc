package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eras-labs/consilium/internal/core/domain"
)

const validAgentJSON = `{
	"recommendation": "Administer ondansetron 4 mg IV",
	"actions": ["give ondansetron", "reassess in 30 min"],
	"reasons": ["high Koivuranta score"],
	"risks": ["QT prolongation"],
	"citations": [{"source": "ponv.md", "chunk_id": 2}]
}`

const validArbiterJSON = `{
	"final_recommendation": "Administer ondansetron 4 mg IV",
	"final_actions": ["give ondansetron"],
	"key_reasons": ["all agents agree"],
	"risks_and_notes": [],
	"conflicts": [],
	"citations": [{"source": "ponv.md", "chunk_id": 2}]
}`

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced json block",
			in:   "Here you go:\n```json\n{\"a\": 1}\n```\nDone.",
			want: `{"a": 1}`,
		},
		{
			name: "fenced without language tag",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "bare object with surrounding prose",
			in:   `Sure! {"a": 1} Hope that helps.`,
			want: `{"a": 1}`,
		},
		{
			name: "greedy bare match spans nested objects",
			in:   `{"a": {"b": 2}}`,
			want: `{"a": {"b": 2}}`,
		},
		{
			name: "fenced wins over bare",
			in:   "{\"outside\": 1}\n```json\n{\"inside\": 2}\n```",
			want: `{"inside": 2}`,
		},
		{
			name: "no object",
			in:   "I cannot produce JSON for this request.",
			want: "",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestParseAgentDecision_Valid(t *testing.T) {
	decision, err := ParseAgentDecision(validAgentJSON)

	require.NoError(t, err)
	assert.Equal(t, "Administer ondansetron 4 mg IV", decision.Recommendation)
	assert.Equal(t, []string{"give ondansetron", "reassess in 30 min"}, decision.Actions)
	require.Len(t, decision.Citations, 1)
	assert.Equal(t, domain.CitationRef{Source: "ponv.md", ChunkID: 2}, decision.Citations[0])
}

func TestParseAgentDecision_FencedOutput(t *testing.T) {
	raw := "Here is my assessment:\n```json\n" + validAgentJSON + "\n```"

	decision, err := ParseAgentDecision(raw)

	require.NoError(t, err)
	assert.Equal(t, "Administer ondansetron 4 mg IV", decision.Recommendation)
}

func TestParseAgentDecision_NoJSON(t *testing.T) {
	_, err := ParseAgentDecision("I am unable to answer in JSON.")

	assert.ErrorIs(t, err, domain.ErrNoJSON)
}

func TestParseAgentDecision_MalformedJSON(t *testing.T) {
	_, err := ParseAgentDecision(`{"recommendation": "x", "citations": [}`)

	assert.ErrorIs(t, err, domain.ErrJSONDecode)
	assert.NotErrorIs(t, err, domain.ErrSchemaValidation)
}

func TestParseAgentDecision_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "missing recommendation",
			raw:  `{"citations": []}`,
			want: `missing required field "recommendation"`,
		},
		{
			name: "missing citations",
			raw:  `{"recommendation": "x"}`,
			want: `missing required field "citations"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAgentDecision(tt.raw)

			require.ErrorIs(t, err, domain.ErrSchemaValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseAgentDecision_UnknownField(t *testing.T) {
	_, err := ParseAgentDecision(`{"recommendation": "x", "citations": [], "certainty": 0.9}`)

	assert.ErrorIs(t, err, domain.ErrSchemaValidation)
}

func TestParseAgentDecision_WrongFieldType(t *testing.T) {
	_, err := ParseAgentDecision(`{"recommendation": "x", "citations": ["ponv.md"]}`)

	assert.ErrorIs(t, err, domain.ErrSchemaValidation)
}

func TestParseAgentDecision_NullRequiredFieldAccepted(t *testing.T) {
	// A present-but-null key passes the required check; the strict
	// decode leaves the zero value.
	decision, err := ParseAgentDecision(`{"recommendation": "x", "citations": null}`)

	require.NoError(t, err)
	assert.Nil(t, decision.Citations)
}

func TestParseArbiterDecision_Valid(t *testing.T) {
	decision, err := ParseArbiterDecision(validArbiterJSON)

	require.NoError(t, err)
	assert.Equal(t, "Administer ondansetron 4 mg IV", decision.FinalRecommendation)
	assert.Equal(t, []string{"all agents agree"}, decision.KeyReasons)
	require.Len(t, decision.Citations, 1)
}

func TestParseArbiterDecision_RequiresFinalRecommendation(t *testing.T) {
	// An agent-shaped object is not a valid arbiter decision.
	_, err := ParseArbiterDecision(validAgentJSON)

	require.ErrorIs(t, err, domain.ErrSchemaValidation)
	assert.Contains(t, err.Error(), `missing required field "final_recommendation"`)
}

func TestParseArbiterDecision_NoJSON(t *testing.T) {
	_, err := ParseArbiterDecision("no structured output here")

	assert.ErrorIs(t, err, domain.ErrNoJSON)
}

func TestParseDecision_ErrorClassesAreDistinct(t *testing.T) {
	classes := []error{domain.ErrNoJSON, domain.ErrJSONDecode, domain.ErrSchemaValidation}
	for i, a := range classes {
		for j, b := range classes {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

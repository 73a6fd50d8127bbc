package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// agentSchemaJSON is the JSON schema every agent response must match,
// restated verbatim in generation and repair prompts.
const agentSchemaJSON = `{
  "type": "object",
  "properties": {
    "recommendation": {"type": "string"},
    "actions": {"type": "array", "items": {"type": "string"}},
    "reasons": {"type": "array", "items": {"type": "string"}},
    "risks": {"type": "array", "items": {"type": "string"}},
    "citations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {"type": "string"},
          "chunk_id": {"type": "integer"}
        },
        "required": ["source", "chunk_id"]
      }
    }
  },
  "required": ["recommendation", "citations"]
}`

// arbiterSchemaJSON is the schema for the arbiter response.
const arbiterSchemaJSON = `{
  "type": "object",
  "properties": {
    "final_recommendation": {"type": "string"},
    "final_actions": {"type": "array", "items": {"type": "string"}},
    "key_reasons": {"type": "array", "items": {"type": "string"}},
    "risks_and_notes": {"type": "array", "items": {"type": "string"}},
    "conflicts": {"type": "array", "items": {"type": "string"}},
    "citations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {"type": "string"},
          "chunk_id": {"type": "integer"}
        },
        "required": ["source", "chunk_id"]
      }
    }
  },
  "required": ["final_recommendation", "citations"]
}`

// roleFocus gives each agent its clinical perspective.
var roleFocus = map[domain.AgentRole]string{
	domain.RoleSurgeon:          "Focus on operative factors, wound and drain management, and surgical complications.",
	domain.RoleAnesthesiologist: "Focus on anesthetic technique, antiemetic and analgesic pharmacology, and perioperative physiology.",
	domain.RoleNurse:            "Focus on bedside assessment, monitoring frequency, and practical care interventions.",
}

// BuildAgentPrompt renders the generation prompt for one agent role.
func BuildAgentPrompt(role domain.AgentRole, scenario domain.Scenario, question string, patientData map[string]any, hitsContext string) string {
	return fmt.Sprintf(`You are a %s providing clinical decision support for ERAS (Enhanced Recovery After Surgery). %s

SCENARIO: %s
CLINICAL QUESTION: %s

PATIENT DATA:
%s

EVIDENCE CONTEXT:
%s

TASK:
Analyze the patient data and evidence to provide a recommendation. You MUST:
1. Output a single valid JSON object matching this schema:
%s

2. Include at least one citation from the evidence context above. Each citation must have "source" and "chunk_id" matching exactly one entry in the evidence.

3. Provide clear recommendation, actions, reasons, and risks.

Output only the JSON object, no additional text.`,
		role, roleFocus[role], scenario, question,
		marshalPatientData(patientData), hitsContext, agentSchemaJSON)
}

// BuildArbiterPrompt renders the synthesis prompt embedding all agent
// decisions as labelled JSON.
func BuildArbiterPrompt(scenario domain.Scenario, question string, patientData map[string]any, hitsContext string, agents []domain.AgentReport) string {
	var agentParts []string
	for i, agent := range agents {
		decisionJSON, err := json.MarshalIndent(agent.Decision, "", "  ")
		if err != nil {
			decisionJSON = []byte("{}")
		}
		agentParts = append(agentParts, fmt.Sprintf("\n[%d] %s:\n%s", i+1, agent.Name, decisionJSON))
	}
	agentsText := strings.Join(agentParts, "\n")

	return fmt.Sprintf(`You are an ARBITER synthesizing multiple clinical expert opinions for ERAS decision support.

SCENARIO: %s
CLINICAL QUESTION: %s

PATIENT DATA:
%s

EVIDENCE CONTEXT:
%s

AGENT DECISIONS:
%s

TASK:
Synthesize the agent decisions into a final recommendation. You MUST:
1. Output a single valid JSON object matching this schema:
%s

2. Include at least one citation from the evidence context above. Each citation must have "source" and "chunk_id" matching exactly one entry in the evidence.

3. Identify any conflicts between agents in the "conflicts" field.

4. Provide final recommendation, actions, reasons, and risks.

Output only the JSON object, no additional text.`,
		scenario, question, marshalPatientData(patientData),
		hitsContext, agentsText, arbiterSchemaJSON)
}

// marshalPatientData renders the payload as indented JSON with stable
// key order.
func marshalPatientData(patientData map[string]any) string {
	if len(patientData) == 0 {
		return "{}"
	}
	data, err := json.MarshalIndent(patientData, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

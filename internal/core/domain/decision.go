package domain

// AgentRole names one of the specialist perspectives consulted per
// request.
type AgentRole string

const (
	// RoleSurgeon reviews the case from the operating surgeon's perspective.
	RoleSurgeon AgentRole = "SURGEON"
	// RoleAnesthesiologist covers anesthesia and pharmacology.
	RoleAnesthesiologist AgentRole = "ANESTHESIOLOGIST"
	// RoleNurse covers bedside monitoring and nursing care.
	RoleNurse AgentRole = "NURSE"
)

// AgentRoles lists the specialist roles in their fixed reporting order.
var AgentRoles = []AgentRole{RoleSurgeon, RoleAnesthesiologist, RoleNurse}

// CitationRef is a citation as emitted by a model: a bare
// (source, chunk_id) pair that must resolve to a retrieval hit.
type CitationRef struct {
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
}

// Key returns the pair used to match the reference against hits.
func (c CitationRef) Key() CitationKey {
	return CitationKey{Source: c.Source, ChunkID: c.ChunkID}
}

// Citation is a caller-facing citation hydrated with the full chunk
// text.
type Citation struct {
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
	Text    string `json:"text"`
}

// AgentDecision is the structured recommendation produced by one
// specialist agent. The schema is strict: unknown fields are rejected
// at parse time.
type AgentDecision struct {
	Recommendation string        `json:"recommendation"`
	Actions        []string      `json:"actions"`
	Reasons        []string      `json:"reasons"`
	Risks          []string      `json:"risks"`
	Citations      []CitationRef `json:"citations"`
}

// ArbiterDecision is the synthesis of the three agent decisions into
// one final answer. Strict schema, same as AgentDecision.
type ArbiterDecision struct {
	FinalRecommendation string        `json:"final_recommendation"`
	FinalActions        []string      `json:"final_actions"`
	KeyReasons          []string      `json:"key_reasons"`
	RisksAndNotes       []string      `json:"risks_and_notes"`
	Conflicts           []string      `json:"conflicts"`
	Citations           []CitationRef `json:"citations"`
}

// AgentReport pairs a role's decision with the error, if any, that the
// repair protocol could not clear. An empty Error means the decision
// parsed and cited cleanly.
type AgentReport struct {
	Name     AgentRole     `json:"name"`
	Decision AgentDecision `json:"decision"`
	Error    string        `json:"error,omitempty"`
}

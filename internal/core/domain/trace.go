package domain

// DecisionTrace is the full request/intermediate/response bundle
// handed to the trace sink after every pipeline run. It is an audit
// artifact, not part of the response contract.
type DecisionTrace struct {
	TraceID    string           `json:"trace_id"`
	CreatedAt  string           `json:"created_at"`
	Request    DecisionRequest  `json:"request"`
	Scenario   Scenario         `json:"scenario"`
	Validation ValidationResult `json:"validation"`
	Hits       []RetrievalHit   `json:"hits"`

	// RawOutputs holds the last unparsed backend text per role, keyed
	// by role name with "ARBITER" for the arbiter. When a repair call
	// was made, the repair output replaces the first attempt.
	RawOutputs map[string]string `json:"raw_outputs,omitempty"`

	Response DecisionResponse `json:"response"`
}

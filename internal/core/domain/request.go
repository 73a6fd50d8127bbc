package domain

// Request bounds.
const (
	// TopKMin and TopKMax bound the number of hits a caller may request.
	TopKMin = 1
	TopKMax = 20
	// TopKDefault is used when the caller does not set top_k.
	TopKDefault = 6
)

// Sentinel recommendations returned without consulting any model
// backend.
const (
	// RecommendationInsufficientData terminates a request whose patient
	// payload failed structural validation.
	RecommendationInsufficientData = "INSUFFICIENT_DATA"
	// RecommendationNeedsReview terminates a request for which retrieval
	// produced no evidence.
	RecommendationNeedsReview = "NEEDS_REVIEW"
)

// DecisionRequest is the caller-facing input contract.
type DecisionRequest struct {
	// Scenario optionally names the clinical scenario. Empty means infer.
	Scenario string `json:"scenario,omitempty"`

	// Question is the free-text clinical question.
	Question string `json:"question"`

	// TopK is the number of retrieval hits to request, in [1, 20].
	// Zero means TopKDefault.
	TopK int `json:"top_k,omitempty"`

	// PatientData is the structured patient payload validated per
	// scenario.
	PatientData map[string]any `json:"patient_data"`
}

// EffectiveTopK clamps TopK into its valid range, applying the default
// for the zero value.
func (r DecisionRequest) EffectiveTopK() int {
	k := r.TopK
	if k == 0 {
		k = TopKDefault
	}
	if k < TopKMin {
		k = TopKMin
	}
	if k > TopKMax {
		k = TopKMax
	}
	return k
}

// Metrics summarises one pipeline run for the caller and the trace
// sink.
type Metrics struct {
	LatencyMS      int64    `json:"latency_ms"`
	TraceID        string   `json:"trace_id"`
	Scenario       Scenario `json:"scenario"`
	BackendName    string   `json:"backend_name"`
	Errors         []string `json:"errors"`
	CitationsCount int      `json:"citations_count"`
	HitsCount      int      `json:"hits_count"`
}

// DecisionResponse is the caller-facing output contract. A response is
// always produced; failures surface through the sentinel
// recommendations and Metrics.Errors, never as a missing response.
type DecisionResponse struct {
	FinalRecommendation string        `json:"final_recommendation"`
	FinalActions        []string      `json:"final_actions"`
	KeyReasons          []string      `json:"key_reasons"`
	RisksAndNotes       []string      `json:"risks_and_notes"`
	MissingData         []string      `json:"missing_data"`
	Conflicts           []string      `json:"conflicts"`
	Citations           []Citation    `json:"citations"`
	Agents              []AgentReport `json:"agents"`
	Metrics             Metrics       `json:"metrics"`
}

// ValidationResult is the outcome of the scenario-specific structural
// check on the patient payload.
type ValidationResult struct {
	// OK is true only when both Missing and Errors are empty.
	OK bool `json:"ok"`

	// Missing lists required fields absent from the payload.
	Missing []string `json:"missing"`

	// Errors lists fields present but malformed or out of range.
	Errors []string `json:"errors"`
}

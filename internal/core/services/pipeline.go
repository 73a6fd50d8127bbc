package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
	"github.com/eras-labs/consilium/internal/core/ports/driving"
	"github.com/eras-labs/consilium/internal/logger"
)

// Ensure DecisionPipeline implements the interface.
var _ driving.DecisionService = (*DecisionPipeline)(nil)

// Generation parameters shared by every agent and arbiter call.
const (
	genTemperature = 0.2
	genMaxTokens   = 900
)

// arbiterName labels the arbiter in raw-output traces.
const arbiterName = "ARBITER"

// PipelineConfig carries the pipeline tunables. Zero values select the
// defaults.
type PipelineConfig struct {
	// MinChars drops retrieval hits shorter than this before prompting.
	MinChars int
	// PerSourceCap bounds hits per source before prompting.
	PerSourceCap int
	// ThresholdML24h is injected into chest-tube payloads lacking one.
	ThresholdML24h int
}

// DecisionPipeline runs the consensus protocol: route, validate,
// retrieve, fan out the specialist agents, arbitrate, assemble. It
// always produces a response; model-side failures are absorbed into
// per-role error annotations and the two sentinel recommendations.
type DecisionPipeline struct {
	llm       driven.LLMService
	retriever driving.RetrievalService
	traces    driven.TraceSink
	cfg       PipelineConfig
}

// NewDecisionPipeline creates the pipeline. The trace sink is optional
// (can be nil).
func NewDecisionPipeline(llm driven.LLMService, retriever driving.RetrievalService, traces driven.TraceSink, cfg PipelineConfig) *DecisionPipeline {
	return &DecisionPipeline{
		llm:       llm,
		retriever: retriever,
		traces:    traces,
		cfg:       cfg,
	}
}

// newTraceID mints an identifier like trace_20250114_153210_a1b2c3d4.
func newTraceID() string {
	return fmt.Sprintf("trace_%s_%s",
		time.Now().Format("20060102_150405"), uuid.NewString()[:8])
}

// Decide runs one request through the full pipeline.
func (p *DecisionPipeline) Decide(ctx context.Context, req domain.DecisionRequest) (domain.DecisionResponse, error) {
	logger.Section("Decision Pipeline")
	start := time.Now()
	traceID := newTraceID()
	logger.Debug("Trace: %s", traceID)

	// 1. Infer scenario
	scenario := InferScenario(req.Scenario, req.Question, req.PatientData)
	logger.Info("Scenario: %s", scenario)

	// 2. Validate inputs; a structural failure terminates before any
	// model call.
	validation := ValidateInputs(scenario, req.PatientData, p.cfg.ThresholdML24h)
	if !validation.OK {
		logger.Warn("Validation failed: missing=%v errors=%v", validation.Missing, validation.Errors)
		resp := p.sentinelResponse(domain.RecommendationInsufficientData, scenario, traceID, start,
			sentinelFields{
				risksAndNotes: validation.Errors,
				missingData:   validation.Missing,
				errors:        validation.Errors,
			})
		p.writeTrace(ctx, &domain.DecisionTrace{
			TraceID:    traceID,
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
			Request:    req,
			Scenario:   scenario,
			Validation: validation,
			Response:   resp,
		})
		return resp, nil
	}

	// 3. Retrieve evidence; zero hits terminate before any model call.
	hits, err := p.retriever.Retrieve(ctx, req.Question, req.EffectiveTopK())
	if err != nil {
		return domain.DecisionResponse{}, fmt.Errorf("retrieve evidence: %w", err)
	}
	if len(hits) == 0 {
		logger.Info("No retrieval hits, needs review")
		resp := p.sentinelResponse(domain.RecommendationNeedsReview, scenario, traceID, start,
			sentinelFields{
				keyReasons: []string{"No relevant evidence found in RAG store"},
				errors:     []string{"No retrieval hits"},
			})
		p.writeTrace(ctx, &domain.DecisionTrace{
			TraceID:    traceID,
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
			Request:    req,
			Scenario:   scenario,
			Validation: validation,
			Hits:       []domain.RetrievalHit{},
			Response:   resp,
		})
		return resp, nil
	}

	// 4. Post-process hits into the shared evidence block.
	hits = FilterAndDedupeHits(hits, p.cfg.MinChars, p.cfg.PerSourceCap)
	hitsContext := FormatHitsContext(hits)
	logger.Debug("Evidence: %d hits after post-processing", len(hits))

	// 5. Fan out the specialist agents. Each role runs the generate →
	// parse → repair machine independently; a failure in one does not
	// affect the others.
	outcomes := make([]agentOutcome, len(domain.AgentRoles))
	var wg sync.WaitGroup
	for i, role := range domain.AgentRoles {
		wg.Add(1)
		go func(i int, role domain.AgentRole) {
			defer wg.Done()
			prompt := BuildAgentPrompt(role, scenario, req.Question, req.PatientData, hitsContext)
			outcomes[i] = p.runAgent(ctx, role, prompt, hits)
		}(i, role)
	}
	wg.Wait()

	agents := make([]domain.AgentReport, len(outcomes))
	rawOutputs := make(map[string]string, len(outcomes)+1)
	for i, outcome := range outcomes {
		agents[i] = outcome.report
		if outcome.raw != "" {
			rawOutputs[string(outcome.report.Name)] = outcome.raw
		}
	}

	// 6. Arbitrate over the joined agent decisions.
	arbiterPrompt := BuildArbiterPrompt(scenario, req.Question, req.PatientData, hitsContext, agents)
	arbiter := p.runArbiter(ctx, arbiterPrompt, hits)
	if arbiter.raw != "" {
		rawOutputs[arbiterName] = arbiter.raw
	}

	// 7. Assemble the response, hydrating citations with chunk text.
	citations := hydrateCitations(arbiter.decision.Citations, hits)
	if len(citations) == 0 && len(hits) > 0 {
		// Evidence existed, so cite the top hit rather than nothing.
		top := hits[0]
		citations = append(citations, domain.Citation{
			Source:  top.Source,
			ChunkID: top.ChunkID,
			Text:    top.Text,
		})
	}

	errs := []string{}
	for _, agent := range agents {
		if agent.Error != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", agent.Name, agent.Error))
		}
	}
	if arbiter.errMsg != "" {
		errs = append(errs, fmt.Sprintf("%s: %s", arbiterName, arbiter.errMsg))
	}

	finalRecommendation := arbiter.decision.FinalRecommendation
	if finalRecommendation == "" {
		finalRecommendation = "No recommendation"
	}

	resp := domain.DecisionResponse{
		FinalRecommendation: finalRecommendation,
		FinalActions:        orEmpty(arbiter.decision.FinalActions),
		KeyReasons:          orEmpty(arbiter.decision.KeyReasons),
		RisksAndNotes:       orEmpty(arbiter.decision.RisksAndNotes),
		MissingData:         []string{},
		Conflicts:           orEmpty(arbiter.decision.Conflicts),
		Citations:           citations,
		Agents:              agents,
		Metrics: domain.Metrics{
			LatencyMS:      time.Since(start).Milliseconds(),
			TraceID:        traceID,
			Scenario:       scenario,
			BackendName:    p.llm.BackendName(),
			Errors:         errs,
			CitationsCount: len(citations),
			HitsCount:      len(hits),
		},
	}

	// 8. Trace the full run.
	p.writeTrace(ctx, &domain.DecisionTrace{
		TraceID:    traceID,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Request:    req,
		Scenario:   scenario,
		Validation: validation,
		Hits:       hits,
		RawOutputs: rawOutputs,
		Response:   resp,
	})

	logger.Info("Decision complete: %s (%d ms)", finalRecommendation, resp.Metrics.LatencyMS)
	return resp, nil
}

// sentinelFields carries the per-sentinel response variations.
type sentinelFields struct {
	keyReasons    []string
	risksAndNotes []string
	missingData   []string
	errors        []string
}

// sentinelResponse builds one of the terminal responses produced
// without consulting any model backend.
func (p *DecisionPipeline) sentinelResponse(recommendation string, scenario domain.Scenario, traceID string, start time.Time, fields sentinelFields) domain.DecisionResponse {
	return domain.DecisionResponse{
		FinalRecommendation: recommendation,
		FinalActions:        []string{},
		KeyReasons:          orEmpty(fields.keyReasons),
		RisksAndNotes:       orEmpty(fields.risksAndNotes),
		MissingData:         orEmpty(fields.missingData),
		Conflicts:           []string{},
		Citations:           []domain.Citation{},
		Agents:              []domain.AgentReport{},
		Metrics: domain.Metrics{
			LatencyMS:   time.Since(start).Milliseconds(),
			TraceID:     traceID,
			Scenario:    scenario,
			BackendName: p.llm.BackendName(),
			Errors:      orEmpty(fields.errors),
		},
	}
}

// agentOutcome is one role's terminal state: the report plus the last
// raw model output for the trace.
type agentOutcome struct {
	report domain.AgentReport
	raw    string
}

// runAgent executes the generate → parse → repair machine for one
// specialist role. At most two generate calls are made: the initial
// one plus a single repair, whether the repair was spent on a parse
// failure or a citation failure.
func (p *DecisionPipeline) runAgent(ctx context.Context, role domain.AgentRole, prompt string, hits []domain.RetrievalHit) agentOutcome {
	opts := driven.GenerateOptions{MaxTokens: genMaxTokens, Temperature: genTemperature}

	raw, err := p.llm.Generate(ctx, prompt, opts)
	if err != nil {
		logger.Warn("%s: generation failed: %v", role, err)
		return agentOutcome{report: domain.AgentReport{
			Name:     role,
			Decision: agentErrorDecision(fmt.Sprintf("Error: %v", err), fmt.Sprintf("LLM error: %v", err)),
			Error:    err.Error(),
		}}
	}

	repaired := false
	decision, parseErr := ParseAgentDecision(raw)
	if parseErr != nil {
		logger.Debug("%s: parse failed, repairing: %v", role, parseErr)
		repaired = true

		repairRaw, repairErr := p.llm.Generate(ctx, BuildRepairPrompt(prompt, hits, agentSchemaJSON), opts)
		if repairErr != nil {
			logger.Warn("%s: repair generation failed: %v", role, repairErr)
			return agentOutcome{raw: raw, report: domain.AgentReport{
				Name:     role,
				Decision: agentErrorDecision(fmt.Sprintf("Error on retry: %v", repairErr), fmt.Sprintf("LLM error (retry): %v", repairErr)),
				Error:    repairErr.Error(),
			}}
		}

		raw = repairRaw
		decision, parseErr = ParseAgentDecision(raw)
		if parseErr != nil {
			logger.Warn("%s: repair did not parse: %v", role, parseErr)
			return agentOutcome{raw: raw, report: domain.AgentReport{
				Name:     role,
				Decision: agentErrorDecision("Unable to parse decision after repair. Manual review required.", fmt.Sprintf("Parse error (retry): %v", parseErr)),
				Error:    parseErr.Error(),
			}}
		}
	}

	citationErrs := ValidateCitations(decision.Citations, hits)
	if len(citationErrs) == 0 {
		return agentOutcome{raw: raw, report: domain.AgentReport{Name: role, Decision: *decision}}
	}

	if repaired {
		// The single repair was spent on the parse failure; keep the
		// decision and annotate it.
		return agentOutcome{raw: raw, report: domain.AgentReport{
			Name:     role,
			Decision: *decision,
			Error:    "Citation validation failed: " + strings.Join(citationErrs, ", "),
		}}
	}

	logger.Debug("%s: citations invalid, repairing: %v", role, citationErrs)
	repairRaw, repairErr := p.llm.Generate(ctx, BuildRepairPrompt(prompt, hits, agentSchemaJSON), opts)
	if repairErr != nil {
		return agentOutcome{raw: raw, report: domain.AgentReport{
			Name:     role,
			Decision: *decision,
			Error:    fmt.Sprintf("Citation repair failed: %v", repairErr),
		}}
	}

	repairedDecision, parseErr := ParseAgentDecision(repairRaw)
	if parseErr != nil {
		return agentOutcome{raw: repairRaw, report: domain.AgentReport{
			Name:     role,
			Decision: *decision,
			Error:    fmt.Sprintf("Citation repair parse failed: %v", parseErr),
		}}
	}

	if stillBad := ValidateCitations(repairedDecision.Citations, hits); len(stillBad) > 0 {
		return agentOutcome{raw: repairRaw, report: domain.AgentReport{
			Name:     role,
			Decision: *repairedDecision,
			Error:    "Citation validation still failed: " + strings.Join(stillBad, ", "),
		}}
	}

	return agentOutcome{raw: repairRaw, report: domain.AgentReport{Name: role, Decision: *repairedDecision}}
}

// arbiterOutcome is the arbiter's terminal state.
type arbiterOutcome struct {
	decision domain.ArbiterDecision
	raw      string
	errMsg   string
}

// runArbiter executes the same state machine for the arbiter, with the
// same one-repair budget.
func (p *DecisionPipeline) runArbiter(ctx context.Context, prompt string, hits []domain.RetrievalHit) arbiterOutcome {
	opts := driven.GenerateOptions{MaxTokens: genMaxTokens, Temperature: genTemperature}

	raw, err := p.llm.Generate(ctx, prompt, opts)
	if err != nil {
		logger.Warn("Arbiter: generation failed: %v", err)
		return arbiterOutcome{
			decision: arbiterErrorDecision(fmt.Sprintf("Error: %v", err), fmt.Sprintf("LLM error: %v", err)),
			errMsg:   err.Error(),
		}
	}

	repaired := false
	decision, parseErr := ParseArbiterDecision(raw)
	if parseErr != nil {
		logger.Debug("Arbiter: parse failed, repairing: %v", parseErr)
		repaired = true

		repairRaw, repairErr := p.llm.Generate(ctx, BuildRepairPrompt(prompt, hits, arbiterSchemaJSON), opts)
		if repairErr != nil {
			return arbiterOutcome{
				raw:      raw,
				decision: arbiterErrorDecision(fmt.Sprintf("Error on retry: %v", repairErr), fmt.Sprintf("LLM error (retry): %v", repairErr)),
				errMsg:   repairErr.Error(),
			}
		}

		raw = repairRaw
		decision, parseErr = ParseArbiterDecision(raw)
		if parseErr != nil {
			logger.Warn("Arbiter: repair did not parse: %v", parseErr)
			return arbiterOutcome{
				raw:      raw,
				decision: arbiterErrorDecision("Unable to parse arbiter decision after repair. Manual review required.", fmt.Sprintf("Parse error (retry): %v", parseErr)),
				errMsg:   parseErr.Error(),
			}
		}
	}

	citationErrs := ValidateCitations(decision.Citations, hits)
	if len(citationErrs) == 0 {
		return arbiterOutcome{raw: raw, decision: *decision}
	}

	if repaired {
		return arbiterOutcome{
			raw:      raw,
			decision: *decision,
			errMsg:   "Citation validation failed: " + strings.Join(citationErrs, ", "),
		}
	}

	logger.Debug("Arbiter: citations invalid, repairing: %v", citationErrs)
	repairRaw, repairErr := p.llm.Generate(ctx, BuildRepairPrompt(prompt, hits, arbiterSchemaJSON), opts)
	if repairErr != nil {
		return arbiterOutcome{raw: raw, decision: *decision, errMsg: fmt.Sprintf("Citation repair failed: %v", repairErr)}
	}

	repairedDecision, parseErr := ParseArbiterDecision(repairRaw)
	if parseErr != nil {
		return arbiterOutcome{raw: repairRaw, decision: *decision, errMsg: fmt.Sprintf("Citation repair parse failed: %v", parseErr)}
	}

	if stillBad := ValidateCitations(repairedDecision.Citations, hits); len(stillBad) > 0 {
		return arbiterOutcome{
			raw:      repairRaw,
			decision: *repairedDecision,
			errMsg:   "Citation validation still failed: " + strings.Join(stillBad, ", "),
		}
	}

	return arbiterOutcome{raw: repairRaw, decision: *repairedDecision}
}

// agentErrorDecision is the conservative fallback for a failed agent.
func agentErrorDecision(recommendation, risk string) domain.AgentDecision {
	return domain.AgentDecision{
		Recommendation: recommendation,
		Actions:        []string{},
		Reasons:        []string{},
		Risks:          []string{risk},
		Citations:      []domain.CitationRef{},
	}
}

// arbiterErrorDecision is the conservative fallback for a failed
// arbiter.
func arbiterErrorDecision(recommendation, note string) domain.ArbiterDecision {
	return domain.ArbiterDecision{
		FinalRecommendation: recommendation,
		FinalActions:        []string{},
		KeyReasons:          []string{},
		RisksAndNotes:       []string{note},
		Conflicts:           []string{},
		Citations:           []domain.CitationRef{},
	}
}

// hydrateCitations resolves each citation's chunk text from the hit
// set used for this request.
func hydrateCitations(refs []domain.CitationRef, hits []domain.RetrievalHit) []domain.Citation {
	byKey := make(map[domain.CitationKey]string, len(hits))
	for _, hit := range hits {
		byKey[hit.Key()] = hit.Text
	}

	citations := make([]domain.Citation, 0, len(refs))
	for _, ref := range refs {
		text, ok := byKey[ref.Key()]
		if !ok {
			text = "[Text not found]"
		}
		citations = append(citations, domain.Citation{
			Source:  ref.Source,
			ChunkID: ref.ChunkID,
			Text:    text,
		})
	}
	return citations
}

// orEmpty normalizes nil to an empty slice so responses marshal lists,
// not nulls.
func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// writeTrace hands the bundle to the sink, if one is configured. Trace
// failures never fail the request.
func (p *DecisionPipeline) writeTrace(ctx context.Context, trace *domain.DecisionTrace) {
	if p.traces == nil {
		return
	}
	if err := p.traces.Write(ctx, trace); err != nil {
		logger.Warn("Trace write failed: %v", err)
	}
}

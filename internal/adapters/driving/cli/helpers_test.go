package cli

import (
	"context"

	memconfig "github.com/eras-labs/consilium/internal/adapters/driven/config/memory"
	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/services"
)

// Mock services for command tests. Function fields let each test
// script behaviour; nil fields fall back to a small canned result.

type mockDecisionService struct {
	DecideFunc func(ctx context.Context, req domain.DecisionRequest) (domain.DecisionResponse, error)
}

func (m *mockDecisionService) Decide(ctx context.Context, req domain.DecisionRequest) (domain.DecisionResponse, error) {
	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, req)
	}
	return domain.DecisionResponse{
		FinalRecommendation: "Administer ondansetron 4 mg IV before emergence",
		FinalActions:        []string{"Give ondansetron 4 mg IV"},
		KeyReasons:          []string{"Two Koivuranta risk factors present"},
		RisksAndNotes:       []string{"QT prolongation with repeated dosing"},
		Citations: []domain.Citation{
			{Source: "ponv_prophylaxis.md", ChunkID: 2, Text: "Ondansetron 4 mg IV is first-line prophylaxis."},
		},
		Agents: []domain.AgentReport{
			{Name: domain.RoleSurgeon, Decision: domain.AgentDecision{Recommendation: "Prophylaxis indicated"}},
			{Name: domain.RoleAnesthesiologist, Decision: domain.AgentDecision{Recommendation: "Agree, single agent"}},
			{Name: domain.RoleNurse, Decision: domain.AgentDecision{Recommendation: "Monitor in PACU"}},
		},
		Metrics: domain.Metrics{
			LatencyMS:      412,
			TraceID:        "trace_20250114_153210_a1b2c3d4",
			Scenario:       domain.ScenarioPONV,
			BackendName:    "ollama",
			Errors:         []string{},
			CitationsCount: 1,
			HitsCount:      4,
		},
	}, nil
}

type mockIngestService struct {
	IngestFunc func(ctx context.Context) (domain.IngestReport, error)
}

func (m *mockIngestService) Ingest(ctx context.Context) (domain.IngestReport, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx)
	}
	return domain.IngestReport{
		BuildID:     "20250114_153210",
		Added:       3,
		Unchanged:   0,
		ChunksAdded: 12,
	}, nil
}

type mockRetrievalService struct {
	RetrieveFunc func(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error)
	EnabledFunc  func() bool
}

func (m *mockRetrievalService) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error) {
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, query, k)
	}
	return []domain.RetrievalHit{
		{
			Score:   0.913,
			Source:  "ponv_prophylaxis.md",
			ChunkID: 2,
			Text:    "Ondansetron 4 mg IV is first-line prophylaxis for adults with two or more risk factors.",
		},
		{
			Score:   0.824,
			Source:  "postoperative_delirium.md",
			ChunkID: 0,
			Text:    "Screen with Nu-DESC every shift for the first three postoperative days.",
		},
	}, nil
}

func (m *mockRetrievalService) Enabled() bool {
	if m.EnabledFunc != nil {
		return m.EnabledFunc()
	}
	return true
}

// setupTestServices installs mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() func() {
	oldConfig := configStore
	oldSettings := settingsService
	oldDecision := decisionService
	oldIngest := ingestService
	oldRetrieval := retrievalService
	oldRetriever := retriever

	store := memconfig.NewConfigStore()
	configStore = store
	settingsService = services.NewSettingsService(store)
	decisionService = &mockDecisionService{}
	ingestService = &mockIngestService{}
	retrievalService = &mockRetrievalService{}
	retriever = nil

	return func() {
		configStore = oldConfig
		settingsService = oldSettings
		decisionService = oldDecision
		ingestService = oldIngest
		retrievalService = oldRetrieval
		retriever = oldRetriever
	}
}

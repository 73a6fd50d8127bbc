package cli

import (
	"context"

	"github.com/eras-labs/consilium/internal/adapters/driven/ai"
	configfile "github.com/eras-labs/consilium/internal/adapters/driven/config/file"
	"github.com/eras-labs/consilium/internal/adapters/driven/index/flat"
	storefile "github.com/eras-labs/consilium/internal/adapters/driven/store/file"
	tracefile "github.com/eras-labs/consilium/internal/adapters/driven/trace/file"
	tracesqlite "github.com/eras-labs/consilium/internal/adapters/driven/trace/sqlite"
	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
	"github.com/eras-labs/consilium/internal/core/ports/driving"
	"github.com/eras-labs/consilium/internal/core/services"
	"github.com/eras-labs/consilium/internal/logger"
)

// Services wired by initServices. Commands nil-check these, so tests
// can inject mocks or clear them.
var (
	configStore      driven.ConfigStore
	settingsService  *services.SettingsService
	buildStore       driven.BuildStore
	embeddingService driven.EmbeddingService
	retriever        *services.Retriever
	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	provider         *services.BackendProvider
	traceSink        driven.TraceSink
	decisionService  driving.DecisionService
)

// llmFactory builds backend clients for the provider. Construction is
// offline: connectivity problems surface on the first generation call
// and are absorbed by the pipeline's per-role error handling.
func llmFactory(_ context.Context, settings domain.BackendSettings) (driven.LLMService, error) {
	return ai.CreateLLMService(settings)
}

func newFlatIndex() driven.VectorIndex {
	return flat.New()
}

// initServices wires the full service graph. Wiring is best-effort: a
// stage that fails logs a warning and leaves its services nil, and the
// commands that need them report that instead of blocking start-up for
// everything else.
func initServices(ctx context.Context) {
	if configStore == nil {
		store, err := configfile.NewConfigStore(configDir)
		if err != nil {
			logger.Warn("Config store unavailable: %v", err)
			return
		}
		configStore = store
	}
	if settingsService == nil {
		settingsService = services.NewSettingsService(configStore)
	}
	if err := settingsService.Validate(); err != nil {
		logger.Warn("Configuration invalid: %v", err)
	}

	if buildStore == nil {
		store, err := storefile.New(settingsService.StoreRoot())
		if err != nil {
			logger.Warn("Build store unavailable: %v", err)
		} else {
			buildStore = store
		}
	}

	if embeddingService == nil {
		embedder, err := ai.CreateEmbeddingService(settingsService.Embedding())
		if err != nil {
			logger.Warn("Embedding service unavailable: %v", err)
		} else {
			embeddingService = embedder
		}
	}

	// The retriever tolerates missing collaborators: it runs disabled
	// and answers empty hit lists.
	if retrievalService == nil {
		retriever = services.NewRetriever(ctx, buildStore, embeddingService)
		retrievalService = retriever
	}

	if ingestService == nil {
		if buildStore == nil || embeddingService == nil {
			logger.Warn("Ingestion disabled: build store or embedding service missing")
		} else {
			ingestService = services.NewIngestor(buildStore, embeddingService, newFlatIndex, settingsService.Ingestor())
		}
	}

	if decisionService == nil {
		p, err := services.NewBackendProvider(ctx, llmFactory, settingsService.Backend())
		if err != nil {
			logger.Warn("Model backend unavailable: %v", err)
		} else {
			provider = p
			settingsService.AttachProvider(provider)
			traceSink = openTraceSink()
			decisionService = services.NewDecisionPipeline(provider, retrievalService, traceSink, settingsService.Pipeline())
		}
	}
}

// openTraceSink opens the configured sink. Trace logging is advisory:
// a sink that cannot open degrades to no tracing, never to a failed
// command.
func openTraceSink() driven.TraceSink {
	kind, path := settingsService.TraceSink()
	switch kind {
	case "none":
		return nil
	case "sqlite":
		sink, err := tracesqlite.NewSink(path)
		if err != nil {
			logger.Warn("Trace sink unavailable: %v", err)
			return nil
		}
		return sink
	default:
		sink, err := tracefile.NewSink(path)
		if err != nil {
			logger.Warn("Trace sink unavailable: %v", err)
			return nil
		}
		return sink
	}
}

// shutdownServices releases everything initServices opened.
func shutdownServices() {
	if provider != nil {
		if err := provider.Close(); err != nil {
			logger.Warn("Closing model backend: %v", err)
		}
	}
	if traceSink != nil {
		if err := traceSink.Close(); err != nil {
			logger.Warn("Closing trace sink: %v", err)
		}
	}
	if embeddingService != nil {
		if err := embeddingService.Close(); err != nil {
			logger.Warn("Closing embedding service: %v", err)
		}
	}
}

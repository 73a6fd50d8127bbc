package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMBackend  = "llm.backend"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMModel    = "llm.model"
	keyLLMAPIKey   = "llm.api_key"
	keyLLMTimeout  = "llm.timeout_seconds"
	keyLLMRPS      = "llm.rps"
	keyEmbProvider = "embedding.provider"
	keyEmbBaseURL  = "embedding.base_url"
	keyEmbModel    = "embedding.model"
	keyEmbAPIKey   = "embedding.api_key"
	keyEmbDims     = "embedding.dimensions"
	keyTopK        = "retrieval.top_k"
	keyMinChars    = "retrieval.min_chars"
	keyPerSource   = "retrieval.per_source_cap"
	keyCorpusDir   = "corpus.dir"
	keyChunkSize   = "corpus.chunk_size"
	keyChunkOver   = "corpus.chunk_overlap"
	keyStoreRoot   = "store.root"
	keyTraceSink   = "trace.sink"
	keyTraceDir    = "trace.dir"
	keyTraceDB     = "trace.db"
	keyThresholdML = "validation.chest_tube.threshold_ml_24h"
)

// openaiKeyEnv is the conventional environment variable for the OpenAI
// API key, honoured when no key is configured explicitly.
const openaiKeyEnv = "OPENAI_API_KEY"

// SettingsService assembles typed settings from the config store and
// applies backend changes to the live provider. It is the single place
// that knows which dot-keys configure which component.
type SettingsService struct {
	config   driven.ConfigStore
	provider *BackendProvider
}

// NewSettingsService creates the settings service. The provider starts
// nil: attach it once the initial backend is built so later Set calls
// reconfigure it in place.
func NewSettingsService(config driven.ConfigStore) *SettingsService {
	return &SettingsService{config: config}
}

// AttachProvider registers the live backend provider for reconfiguration.
func (s *SettingsService) AttachProvider(p *BackendProvider) {
	s.provider = p
}

// Backend assembles the model-backend settings.
func (s *SettingsService) Backend() domain.BackendSettings {
	return domain.BackendSettings{
		Backend: s.getString(keyLLMBackend, domain.BackendOllama),
		BaseURL: s.config.GetString(keyLLMBaseURL),
		Model:   s.config.GetString(keyLLMModel),
		APIKey:  s.apiKey(keyLLMAPIKey),
		Timeout: time.Duration(s.getInt(keyLLMTimeout, 60)) * time.Second,
		RPS:     s.config.GetFloat(keyLLMRPS),
	}
}

// Embedding assembles the embedding-provider settings.
func (s *SettingsService) Embedding() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:   s.getString(keyEmbProvider, domain.EmbeddingProviderOllama),
		BaseURL:    s.config.GetString(keyEmbBaseURL),
		Model:      s.config.GetString(keyEmbModel),
		APIKey:     s.apiKey(keyEmbAPIKey),
		Dimensions: s.config.GetInt(keyEmbDims),
	}
}

// Pipeline assembles the decision-pipeline tunables.
func (s *SettingsService) Pipeline() PipelineConfig {
	return PipelineConfig{
		MinChars:       s.config.GetInt(keyMinChars),
		PerSourceCap:   s.config.GetInt(keyPerSource),
		ThresholdML24h: s.config.GetInt(keyThresholdML),
	}
}

// Ingestor assembles the ingestion tunables.
func (s *SettingsService) Ingestor() IngestorConfig {
	return IngestorConfig{
		CorpusDir:    s.CorpusDir(),
		ChunkSize:    s.config.GetInt(keyChunkSize),
		ChunkOverlap: s.config.GetInt(keyChunkOver),
	}
}

// CorpusDir returns the guideline document directory.
func (s *SettingsService) CorpusDir() string {
	return s.getString(keyCorpusDir, "data/guidelines")
}

// StoreRoot returns the versioned index store directory.
func (s *SettingsService) StoreRoot() string {
	return s.getString(keyStoreRoot, "data/index")
}

// TopK returns the default retrieval depth.
func (s *SettingsService) TopK() int {
	return s.getInt(keyTopK, domain.TopKDefault)
}

// TraceSink returns the configured trace sink kind ("file", "sqlite"
// or "none") with its target path.
func (s *SettingsService) TraceSink() (kind, path string) {
	kind = s.getString(keyTraceSink, "file")
	switch kind {
	case "sqlite":
		path = s.config.GetString(keyTraceDB)
	default:
		path = s.config.GetString(keyTraceDir)
	}
	return kind, path
}

// Validate checks the stored configuration for values no component
// could accept.
func (s *SettingsService) Validate() error {
	backend := s.Backend()
	switch backend.Backend {
	case domain.BackendOllama, domain.BackendVLLM, domain.BackendTRTLLM:
	default:
		return fmt.Errorf("unsupported model backend: %s", backend.Backend)
	}
	if backend.RPS < 0 {
		return fmt.Errorf("llm.rps must not be negative, got %v", backend.RPS)
	}

	embedding := s.Embedding()
	switch embedding.Provider {
	case domain.EmbeddingProviderOllama:
	case domain.EmbeddingProviderOpenAI:
		if embedding.APIKey == "" {
			return fmt.Errorf("embedding provider %s requires an API key (set embedding.api_key or %s)",
				embedding.Provider, openaiKeyEnv)
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %s", embedding.Provider)
	}

	ingest := s.Ingestor()
	if ingest.ChunkSize > 0 && ingest.ChunkOverlap >= ingest.ChunkSize {
		return fmt.Errorf("corpus.chunk_overlap (%d) must be smaller than corpus.chunk_size (%d)",
			ingest.ChunkOverlap, ingest.ChunkSize)
	}

	if k := s.TopK(); k < domain.TopKMin || k > domain.TopKMax {
		return fmt.Errorf("retrieval.top_k must be in [%d, %d], got %d",
			domain.TopKMin, domain.TopKMax, k)
	}

	return nil
}

// SetBackend switches the model backend, optionally changing the model
// too, and reconfigures the live provider when one is attached.
func (s *SettingsService) SetBackend(ctx context.Context, backend, model string) error {
	switch backend {
	case domain.BackendOllama, domain.BackendVLLM, domain.BackendTRTLLM:
	default:
		return fmt.Errorf("unsupported model backend: %s", backend)
	}

	if err := s.config.Set(keyLLMBackend, backend); err != nil {
		return fmt.Errorf("save llm backend: %w", err)
	}
	if model != "" {
		if err := s.config.Set(keyLLMModel, model); err != nil {
			return fmt.Errorf("save llm model: %w", err)
		}
	}

	return s.reconfigure(ctx)
}

// SetModel changes the generation model on the current backend.
func (s *SettingsService) SetModel(ctx context.Context, model string) error {
	if model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if err := s.config.Set(keyLLMModel, model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	return s.reconfigure(ctx)
}

func (s *SettingsService) reconfigure(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Reconfigure(ctx, s.Backend())
}

// apiKey reads a configured key, falling back to the OpenAI convention
// so `.env` files with OPENAI_API_KEY keep working.
func (s *SettingsService) apiKey(key string) string {
	if val := s.config.GetString(key); val != "" {
		return val
	}
	return os.Getenv(openaiKeyEnv)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.config.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.config.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

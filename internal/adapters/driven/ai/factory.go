// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/eras-labs/consilium/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/eras-labs/consilium/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/eras-labs/consilium/internal/adapters/driven/llm/ollama"
	trtllmllm "github.com/eras-labs/consilium/internal/adapters/driven/llm/trtllm"
	vllmllm "github.com/eras-labs/consilium/internal/adapters/driven/llm/vllm"
	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateLLMService creates the model backend named by the settings.
func CreateLLMService(settings domain.BackendSettings) (driven.LLMService, error) {
	backend := settings.Backend
	if backend == "" {
		backend = domain.BackendOllama
	}

	switch backend {
	case domain.BackendOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.BackendVLLM:
		return vllmllm.NewLLMService(vllmllm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			APIKey:  settings.APIKey,
			Timeout: settings.Timeout,
		}), nil

	case domain.BackendTRTLLM:
		return trtllmllm.NewLLMService(trtllmllm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported model backend: %s", backend)
	}
}

// CreateAndValidateLLMService creates a model backend and validates
// connectivity. The trtllm placeholder skips the ping: an unconfigured
// backend is a legal state that short-circuits at generation time.
func CreateAndValidateLLMService(settings domain.BackendSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	if trt, ok := svc.(*trtllmllm.LLMService); ok && !trt.Configured() {
		return svc, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding provider named by the
// settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	provider := settings.Provider
	if provider == "" {
		provider = domain.EmbeddingProviderOllama
	}

	switch provider {
	case domain.EmbeddingProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.EmbeddingProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity.
func CreateAndValidateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

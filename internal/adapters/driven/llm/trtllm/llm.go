// Package trtllm provides an LLM service adapter for a
// TensorRT-LLM server exposing the OpenAI-compatible completions
// endpoint.
//
// Deployments frequently ship with the base URL left at its
// placeholder; the adapter detects that and refuses to generate
// before any network call is made.
package trtllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
	"github.com/eras-labs/consilium/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values. The default base URL is a placeholder
// that must be replaced before the backend is usable.
const (
	DefaultBaseURL    = "http://your-trtllm-server:8000"
	DefaultLLMModel   = "ensemble"
	DefaultLLMTimeout = 60 * time.Second
)

// placeholderHost marks an unconfigured deployment.
const placeholderHost = "your-trtllm-server"

// BackendName identifies this adapter's wire protocol.
const BackendName = "trtllm"

// LLMConfig holds configuration for the TensorRT-LLM service.
type LLMConfig struct {
	// BaseURL is the server base URL. The placeholder default is
	// treated as unconfigured.
	BaseURL string

	// Model is the served model identifier (default: ensemble).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// LLMService provides text generation against a TensorRT-LLM server.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

// completionRequest is the OpenAI-compatible /v1/completions request format.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Stream      bool    `json:"stream"`
}

// completionResponse is the OpenAI-compatible /v1/completions response format.
type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// NewLLMService creates a new TensorRT-LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Configured reports whether the base URL has been replaced with a
// real endpoint.
func (s *LLMService) Configured() bool {
	return s.baseURL != "" && !strings.Contains(s.baseURL, placeholderHost)
}

// Generate produces text completion from a prompt. An unconfigured
// backend short-circuits with a configuration error before any
// network call; transport-level failures are retried once.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("trtllm base URL is a placeholder: %w", domain.ErrBackendNotConfigured)
	}

	reqBody := completionRequest{
		Model:       s.model,
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := s.post(ctx, "/v1/completions", jsonBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("trtllm error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("trtllm error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("trtllm: empty choices in response")
	}

	return completion.Choices[0].Text, nil
}

// post sends a JSON body, retrying once on transport-level failure.
func (s *LLMService) post(ctx context.Context, path string, jsonBody []byte) (*http.Response, error) {
	send := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			s.baseURL+path,
			bytes.NewReader(jsonBody),
		)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return s.client.Do(req)
	}

	resp, err := send()
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	logger.Debug("trtllm: transport error, retrying once: %v", err)
	resp, err = send()
	if err != nil {
		return nil, fmt.Errorf("send request (after retry): %w", err)
	}
	return resp, nil
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// BackendName identifies the wire protocol.
func (s *LLMService) BackendName() string {
	return BackendName
}

// Ping validates the service is reachable by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if !s.Configured() {
		return fmt.Errorf("trtllm base URL is a placeholder: %w", domain.ErrBackendNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("trtllm: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("trtllm: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("trtllm: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("trtllm: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

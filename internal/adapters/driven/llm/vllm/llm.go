// Package vllm provides an LLM service adapter for vLLM's
// OpenAI-compatible completions endpoint.
package vllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eras-labs/consilium/internal/core/ports/driven"
	"github.com/eras-labs/consilium/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultLLMModel   = "meta-llama/Llama-3.1-8B-Instruct"
	DefaultLLMTimeout = 60 * time.Second
)

// BackendName identifies this adapter's wire protocol.
const BackendName = "vllm"

// LLMConfig holds configuration for the vLLM service.
type LLMConfig struct {
	// BaseURL is the vLLM server base URL (default: http://localhost:8000).
	BaseURL string

	// Model is the model identifier served by vLLM.
	Model string

	// APIKey is optional; set it when the server enforces bearer auth.
	APIKey string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// LLMService provides text generation against a vLLM server.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
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

// NewLLMService creates a new vLLM service.
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
		apiKey:  cfg.APIKey,
	}
}

// Generate produces text completion from a prompt. Transport-level
// failures are retried once; non-2xx responses surface immediately.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
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
			return "", fmt.Errorf("vllm error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("vllm error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("vllm: empty choices in response")
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
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}
		return s.client.Do(req)
	}

	resp, err := send()
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	logger.Debug("vllm: transport error, retrying once: %v", err)
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
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("vllm: failed to create ping request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("vllm: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("vllm: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("vllm: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

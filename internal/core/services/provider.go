package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/core/ports/driven"
	"github.com/eras-labs/consilium/internal/logger"
)

// Ensure BackendProvider implements the interface.
var _ driven.LLMService = (*BackendProvider)(nil)

// defaultBurst is the token bucket burst size when throttling is on.
const defaultBurst = 1

// LLMFactory builds a validated LLM client from backend settings.
type LLMFactory func(ctx context.Context, settings domain.BackendSettings) (driven.LLMService, error)

// BackendProvider owns the live model-backend client. It decorates
// driven.LLMService with optional request throttling and lets the
// backend be swapped at runtime without callers ever observing a
// half-rebuilt client: generation holds a read lock for the duration
// of the call, so Reconfigure waits for in-flight requests.
type BackendProvider struct {
	factory LLMFactory

	mu       sync.RWMutex
	llm      driven.LLMService
	limiter  *rate.Limiter
	settings domain.BackendSettings
}

// NewBackendProvider builds the initial client from settings.
func NewBackendProvider(ctx context.Context, factory LLMFactory, settings domain.BackendSettings) (*BackendProvider, error) {
	llm, err := factory(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("create llm backend: %w", err)
	}

	return &BackendProvider{
		factory:  factory,
		llm:      llm,
		limiter:  newLimiter(settings.RPS),
		settings: settings,
	}, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), defaultBurst)
}

// Generate forwards to the current client, waiting on the rate
// limiter first when one is configured.
func (p *BackendProvider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	p.mu.RLock()
	limiter := p.limiter
	p.mu.RUnlock()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	return p.llm.Generate(ctx, prompt, opts)
}

// Reconfigure swaps the backend client when settings changed. The swap
// waits for in-flight generations to finish; a failed rebuild leaves
// the previous client serving.
func (p *BackendProvider) Reconfigure(ctx context.Context, settings domain.BackendSettings) error {
	p.mu.RLock()
	unchanged := p.settings == settings
	p.mu.RUnlock()
	if unchanged {
		logger.Debug("Backend settings unchanged, keeping current client")
		return nil
	}

	llm, err := p.factory(ctx, settings)
	if err != nil {
		return fmt.Errorf("rebuild llm backend: %w", err)
	}

	p.mu.Lock()
	old := p.llm
	p.llm = llm
	p.limiter = newLimiter(settings.RPS)
	p.settings = settings
	p.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			logger.Warn("Closing previous backend client: %v", err)
		}
	}

	logger.Info("Model backend reconfigured: %s (%s)", llm.BackendName(), llm.ModelName())
	return nil
}

// ModelName returns the current model identifier.
func (p *BackendProvider) ModelName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.llm == nil {
		return ""
	}
	return p.llm.ModelName()
}

// BackendName returns the current backend identifier.
func (p *BackendProvider) BackendName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.llm == nil {
		return ""
	}
	return p.llm.BackendName()
}

// Ping checks the current backend's reachability.
func (p *BackendProvider) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.llm == nil {
		return domain.ErrLLMUnavailable
	}
	return p.llm.Ping(ctx)
}

// Close releases the current client.
func (p *BackendProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.llm == nil {
		return nil
	}
	err := p.llm.Close()
	p.llm = nil
	return err
}

package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eras-labs/consilium/internal/core/domain"
)

func TestCreateLLMService_Backends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		want    string
	}{
		{"default is ollama", "", "ollama"},
		{"ollama", domain.BackendOllama, "ollama"},
		{"vllm", domain.BackendVLLM, "vllm"},
		{"trtllm", domain.BackendTRTLLM, "trtllm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(domain.BackendSettings{Backend: tt.backend})
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.want, svc.BackendName())
		})
	}
}

func TestCreateLLMService_UnknownBackend(t *testing.T) {
	_, err := CreateLLMService(domain.BackendSettings{Backend: "bedrock"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model backend")
}

func TestCreateEmbeddingService_Providers(t *testing.T) {
	svc, err := CreateEmbeddingService(domain.EmbeddingSettings{})
	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, "nomic-embed-text", svc.ModelName())

	svc, err = CreateEmbeddingService(domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderOpenAI,
		APIKey:   "sk-test",
	})
	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, "text-embedding-3-small", svc.ModelName())
}

func TestCreateEmbeddingService_OpenAIRequiresKey(t *testing.T) {
	_, err := CreateEmbeddingService(domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderOpenAI,
	})
	assert.Error(t, err)
}

func TestCreateEmbeddingService_UnknownProvider(t *testing.T) {
	_, err := CreateEmbeddingService(domain.EmbeddingSettings{Provider: "cohere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestCreateAndValidateLLMService_TRTLLMPlaceholderSkipsPing(t *testing.T) {
	// The placeholder backend is legal at startup; it fails at
	// generation time instead.
	svc, err := CreateAndValidateLLMService(domain.BackendSettings{Backend: domain.BackendTRTLLM})
	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, "trtllm", svc.BackendName())
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eras-labs/consilium/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search the evidence index", searchCmd.Short)
}

func TestSearchCmd_Long(t *testing.T) {
	assert.Contains(t, searchCmd.Long, "semantic search")
	assert.Contains(t, searchCmd.Long, "similarity scores")
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "6", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "ondansetron dosing"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Hits:")
	assert.Contains(t, output, "[1] ponv_prophylaxis.md #2 (0.913)")
	assert.Contains(t, output, "Ondansetron 4 mg IV is first-line prophylaxis")
	assert.Contains(t, output, "[2] postoperative_delirium.md #0 (0.824)")
}

func TestSearchCmd_PassesLimit(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var gotLimit int
	retrievalService = &mockRetrievalService{
		RetrieveFunc: func(_ context.Context, _ string, k int) ([]domain.RetrievalHit, error) {
			gotLimit = k
			return []domain.RetrievalHit{}, nil
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "-n", "3", "chest tube removal"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchLimit = domain.TopKDefault
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, 3, gotLimit)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--json", "delirium screening"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, `"score"`)
	assert.Contains(t, output, `"source"`)
	assert.Contains(t, output, `"chunk_id"`)
	assert.Contains(t, output, "ponv_prophylaxis.md")
}

func TestSearchCmd_NoBuildLoaded(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = &mockRetrievalService{
		EnabledFunc: func() bool { return false },
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No index build loaded. Run 'consilium ingest' first.")
}

func TestSearchCmd_NoHits(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = &mockRetrievalService{
		RetrieveFunc: func(context.Context, string, int) ([]domain.RetrievalHit, error) {
			return []domain.RetrievalHit{}, nil
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "unrelated topic"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No hits found.")
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	oldService := retrievalService
	retrievalService = nil
	defer func() {
		retrievalService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "test"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval service not configured")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = &mockRetrievalService{
		RetrieveFunc: func(context.Context, string, int) ([]domain.RetrievalHit, error) {
			return nil, errors.New("embed query: connection refused")
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "test"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "short text unchanged",
			text: "Ondansetron 4 mg IV.",
			want: "Ondansetron 4 mg IV.",
		},
		{
			name: "whitespace collapsed",
			text: "Remove the tube\n\twhen output   is serous.",
			want: "Remove the tube when output is serous.",
		},
		{
			name: "long text truncated",
			text: strings.Repeat("evidence ", 40),
			want: strings.Repeat("evidence ", 18)[:snippetLen] + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snippet(tt.text)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), snippetLen+3)
		})
	}
}

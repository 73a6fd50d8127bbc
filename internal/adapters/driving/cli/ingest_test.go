package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eras-labs/consilium/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest", ingestCmd.Use)
}

func TestIngestCmd_Short(t *testing.T) {
	assert.Equal(t, "Build the evidence index from the guideline corpus", ingestCmd.Short)
}

func TestIngestCmd_Flags(t *testing.T) {
	for _, name := range []string{"seed", "watch", "json"} {
		flag := ingestCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "%s flag should exist", name)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestIngestCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Build 20250114_153210")
	assert.Contains(t, output, "Sources: 3 added, 0 updated, 0 removed, 0 unchanged")
	assert.Contains(t, output, "Chunks: 12 added, 0 removed")
}

func TestIngestCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, `"build_id"`)
	assert.Contains(t, output, `"chunks_added"`)
}

func TestIngestCmd_Seed(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	corpusDir := filepath.Join(t.TempDir(), "guidelines")
	require.NoError(t, configStore.Set("corpus.dir", corpusDir))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "--seed"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestSeed = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Seeded chest_tube_management.md")
	assert.Contains(t, output, "Seeded ponv_prophylaxis.md")
	assert.Contains(t, output, "Seeded postoperative_delirium.md")

	entries, err := os.ReadDir(corpusDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestIngestCmd_SeedSkipsPopulatedCorpus(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	corpusDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "existing.md"), []byte("# Guideline"), 0o600))
	require.NoError(t, configStore.Set("corpus.dir", corpusDir))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "--seed"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestSeed = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Corpus already populated, seeding skipped.")
}

func TestIngestCmd_SeedWithoutSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "--seed"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestSeed = false
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	oldService := ingestService
	ingestService = nil
	defer func() {
		ingestService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestService = &mockIngestService{
		IngestFunc: func(context.Context) (domain.IngestReport, error) {
			return domain.IngestReport{}, errors.New("scan corpus: permission denied")
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed")
}

func TestIngestCmd_InProgress(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestService = &mockIngestService{
		IngestFunc: func(context.Context) (domain.IngestReport, error) {
			return domain.IngestReport{}, domain.ErrIngestInProgress
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)
}

func TestWatchCorpus_MissingDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, configStore.Set("corpus.dir", filepath.Join(t.TempDir(), "missing")))
	ingestCmd.SetContext(context.Background())

	err := watchCorpus(ingestCmd)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "watch corpus")
}

func TestWatchCorpus_WithoutSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	err := watchCorpus(ingestCmd)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

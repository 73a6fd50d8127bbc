package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eras-labs/consilium/internal/core/domain"
	"github.com/eras-labs/consilium/internal/corpus"
	"github.com/eras-labs/consilium/internal/logger"
)

var (
	ingestSeed  bool
	ingestWatch bool
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the evidence index from the guideline corpus",
	Long: `Scans the corpus directory, diffs it against the previous run and
writes a new index build containing only the changes.

With --seed an empty corpus is first populated with three demonstration
guidelines. With --watch the command keeps running and re-ingests after
every settled batch of file changes.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestSeed, "seed", false, "write demo guidelines into an empty corpus first")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep watching the corpus and re-ingest on changes")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the ingest report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if ingestSeed {
		if err := seedCorpus(cmd); err != nil {
			return err
		}
	}

	if err := runIngestOnce(cmd.Context(), cmd); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}
	return watchCorpus(cmd)
}

// seedCorpus writes the demonstration guidelines when the corpus
// directory holds no documents yet.
func seedCorpus(cmd *cobra.Command) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	written, err := corpus.Seed(settingsService.CorpusDir())
	if err != nil {
		return fmt.Errorf("seed corpus: %w", err)
	}
	if len(written) == 0 {
		cmd.Println("Corpus already populated, seeding skipped.")
		return nil
	}
	for _, name := range written {
		cmd.Printf("Seeded %s\n", name)
	}
	return nil
}

// runIngestOnce runs one ingestion pass and reloads the retriever so
// later commands in the same process see the new build.
func runIngestOnce(ctx context.Context, cmd *cobra.Command) error {
	report, err := ingestService.Ingest(ctx)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if retriever != nil {
		retriever.Reload(ctx)
	}

	if ingestJSON {
		return outputIngestJSON(cmd, report)
	}
	return outputIngestTable(cmd, report)
}

// watchCorpus re-ingests after every settled batch of corpus changes.
// The loop runs until the context is cancelled or the watcher stops.
func watchCorpus(cmd *cobra.Command) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	dir := settingsService.CorpusDir()

	ctx := cmd.Context()
	changed, err := corpus.Watch(ctx, dir, corpus.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}

	cmd.Printf("Watching %s for changes...\n", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changed:
			if !ok {
				return nil
			}
			if err := runIngestOnce(ctx, cmd); err != nil {
				logger.Warn("Ingest run failed: %v", err)
			}
		}
	}
}

func outputIngestJSON(cmd *cobra.Command, report domain.IngestReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputIngestTable(cmd *cobra.Command, report domain.IngestReport) error {
	cmd.Printf("Build %s\n", report.BuildID)
	cmd.Printf("  Sources: %d added, %d updated, %d removed, %d unchanged\n",
		report.Added, report.Updated, report.Removed, report.Unchanged)
	cmd.Printf("  Chunks: %d added, %d removed\n", report.ChunksAdded, report.ChunksRemoved)
	return nil
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// snippetLen bounds chunk text in table output.
const snippetLen = 160

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the evidence index",
	Long: `Runs a semantic search over the current index build and prints the
matching guideline chunks with their similarity scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.TopKDefault, "maximum number of hits")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output hits as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	if !retrievalService.Enabled() {
		cmd.Println("No index build loaded. Run 'consilium ingest' first.")
		return nil
	}

	hits, err := retrievalService.Retrieve(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputHitsJSON(cmd, hits)
	}
	return outputHitsTable(cmd, hits)
}

func outputHitsJSON(cmd *cobra.Command, hits []domain.RetrievalHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hits: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputHitsTable(cmd *cobra.Command, hits []domain.RetrievalHit) error {
	if len(hits) == 0 {
		cmd.Println("No hits found.")
		return nil
	}

	cmd.Println("Hits:")
	cmd.Println()
	for i := range hits {
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, hits[i].Source, hits[i].ChunkID, hits[i].Score)
		if hits[i].Text != "" {
			cmd.Printf("      %s\n", snippet(hits[i].Text))
		}
		cmd.Println()
	}
	return nil
}

// snippet collapses text onto one line and truncates it for table
// output.
func snippet(text string) string {
	line := strings.Join(strings.Fields(text), " ")
	runes := []rune(line)
	if len(runes) <= snippetLen {
		return line
	}
	return string(runes[:snippetLen]) + "..."
}

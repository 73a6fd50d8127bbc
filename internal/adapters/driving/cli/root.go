// Package cli implements the consilium command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eras-labs/consilium/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "consilium",
	Short: "Retrieval-augmented clinical decision support",
	Long: `Consilium consults a panel of specialist model agents over a local
guideline corpus and arbitrates their answers into one recommendation.

Evidence comes from a versioned vector index built with 'consilium ingest'.
Questions run through 'consilium decide' or the interactive
'consilium console'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.consilium)")
}

// Execute wires the service graph and runs the root command.
func Execute() error {
	initServices(context.Background())
	defer shutdownServices()
	return rootCmd.Execute()
}

package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/eras-labs/consilium/internal/adapters/driving/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Launch the interactive console",
	Long: `Launch the interactive terminal console.

The console keeps the decision pipeline warm across questions: type a
question, pick a scenario, paste patient data and read the panel's
answer without restarting the process.

Controls:
  tab      - Next field
  enter    - Run the consultation
  ctrl+f   - Search the evidence index
  esc      - Back / quit`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in console: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := console.NewPorts(decisionService, retrievalService)

	app, err := console.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create console: %w", err)
	}

	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}

	return nil
}

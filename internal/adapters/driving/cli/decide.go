package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eras-labs/consilium/internal/core/domain"
)

var (
	decideScenario string
	decideTopK     int
	decidePatient  string
	decideJSON     bool
)

var decideCmd = &cobra.Command{
	Use:   "decide [question]",
	Short: "Run a clinical question through the agent panel",
	Long: `Runs one question through the full decision pipeline: scenario
routing, patient-data validation, evidence retrieval, the three-role
specialist panel and the arbiter.

Patient data is given as inline JSON or as @file:
  consilium decide "Prophylaxis for high PONV risk?" --patient '{"female": true}'
  consilium decide "Remove the chest tube?" --patient @patient.json`,
	Args: cobra.ExactArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVarP(&decideScenario, "scenario", "s", "", "clinical scenario (PONV, POD, CHEST_TUBE); inferred when empty")
	decideCmd.Flags().IntVarP(&decideTopK, "top-k", "k", 0, "retrieval hits to request (1-20)")
	decideCmd.Flags().StringVarP(&decidePatient, "patient", "p", "", "patient data as inline JSON or @file")
	decideCmd.Flags().BoolVar(&decideJSON, "json", false, "output the full response as JSON")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	if decisionService == nil {
		return errors.New("decision service not configured")
	}

	patient, err := parsePatientData(decidePatient)
	if err != nil {
		return err
	}

	req := domain.DecisionRequest{
		Scenario:    decideScenario,
		Question:    args[0],
		TopK:        decideTopK,
		PatientData: patient,
	}

	resp, err := decisionService.Decide(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("decide failed: %w", err)
	}

	if decideJSON {
		return outputDecisionJSON(cmd, resp)
	}
	return outputDecisionText(cmd, resp)
}

// parsePatientData decodes the --patient flag: inline JSON, @file, or
// empty for no payload.
func parsePatientData(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, nil
	}

	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, fmt.Errorf("read patient file: %w", err)
		}
		raw = data
	}

	var patient map[string]any
	if err := json.Unmarshal(raw, &patient); err != nil {
		return nil, fmt.Errorf("patient data is not valid JSON: %w", err)
	}
	return patient, nil
}

func outputDecisionJSON(cmd *cobra.Command, resp domain.DecisionResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputDecisionText(cmd *cobra.Command, resp domain.DecisionResponse) error {
	cmd.Printf("Recommendation: %s\n", resp.FinalRecommendation)

	if len(resp.FinalActions) > 0 {
		cmd.Println("\nActions:")
		for i, action := range resp.FinalActions {
			cmd.Printf("  %d. %s\n", i+1, action)
		}
	}
	if len(resp.KeyReasons) > 0 {
		cmd.Println("\nKey reasons:")
		for _, reason := range resp.KeyReasons {
			cmd.Printf("  - %s\n", reason)
		}
	}
	if len(resp.RisksAndNotes) > 0 {
		cmd.Println("\nRisks and notes:")
		for _, risk := range resp.RisksAndNotes {
			cmd.Printf("  - %s\n", risk)
		}
	}
	if len(resp.MissingData) > 0 {
		cmd.Println("\nMissing data:")
		for _, field := range resp.MissingData {
			cmd.Printf("  - %s\n", field)
		}
	}
	if len(resp.Conflicts) > 0 {
		cmd.Println("\nConflicts:")
		for _, conflict := range resp.Conflicts {
			cmd.Printf("  - %s\n", conflict)
		}
	}
	if len(resp.Citations) > 0 {
		cmd.Println("\nCitations:")
		for i := range resp.Citations {
			cmd.Printf("  [%d] %s #%d\n", i+1, resp.Citations[i].Source, resp.Citations[i].ChunkID)
			if resp.Citations[i].Text != "" {
				cmd.Printf("      %s\n", snippet(resp.Citations[i].Text))
			}
		}
	}
	if len(resp.Agents) > 0 {
		cmd.Println("\nPanel:")
		for _, agent := range resp.Agents {
			if agent.Error != "" {
				cmd.Printf("  %s: error: %s\n", agent.Name, agent.Error)
			} else {
				cmd.Printf("  %s: %s\n", agent.Name, snippet(agent.Decision.Recommendation))
			}
		}
	}

	cmd.Println()
	cmd.Printf("Scenario: %s\n", resp.Metrics.Scenario)
	cmd.Printf("Backend: %s\n", resp.Metrics.BackendName)
	cmd.Printf("Latency: %d ms\n", resp.Metrics.LatencyMS)
	cmd.Printf("Trace: %s\n", resp.Metrics.TraceID)
	if len(resp.Metrics.Errors) > 0 {
		cmd.Println("Errors:")
		for _, e := range resp.Metrics.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pellera/prospect-engine/internal/config"
	"github.com/pellera/prospect-engine/internal/observability"
	"github.com/pellera/prospect-engine/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run a full prospecting pipeline end-to-end",
	Long: `Runs the entire prospecting process for one client: research -> classification -> memory retrieval -> competitor scouting -> ideation -> refinement -> asset generation -> knowledge capture.

Progress is printed as each stage completes; refined plays and assets are printed at the end.`,
	RunE: runPipelineCmd,
}

var (
	runClientName  string
	runHistoryPath string
	runPromptPath  string
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVarP(&runClientName, "client", "c", "", "Client company name (required)")
	runCommand.Flags().StringVar(&runHistoryPath, "history", "", "Path to a past sales history text file (optional)")
	runCommand.Flags().StringVar(&runPromptPath, "prompt", "", "Path to a custom research prompt file (optional)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print the full research report and strategic plan")

	if err := runCommand.MarkFlagRequired("client"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	req := types.ProspectRequest{ClientName: runClientName}
	if runHistoryPath != "" {
		data, err := os.ReadFile(runHistoryPath)
		if err != nil {
			return fmt.Errorf("failed to read history file %s: %w", runHistoryPath, err)
		}
		req.PastSalesHistory = string(data)
	}
	if runPromptPath != "" {
		data, err := os.ReadFile(runPromptPath)
		if err != nil {
			return fmt.Errorf("failed to read prompt file %s: %w", runPromptPath, err)
		}
		req.BaseResearchPrompt = string(data)
	}

	st, executor, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer cleanup()

	run, err := executor.StartRun(req)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	fmt.Printf("Run %s started for %s\n\n", run.ID, run.ClientName)

	events, unsubscribe := executor.Broadcaster().Subscribe(run.ID)
	defer unsubscribe()
	for event := range events {
		if event.Done {
			break
		}
		printer.PrintProgress(event)
	}

	final, err := st.GetRun(run.ID)
	if err != nil {
		return err
	}

	fmt.Println()
	printer.PrintClientProfile(final.State)
	printer.PrintProofs(final.State.CompetitorProofs)
	printer.PrintPlays(final.State.RefinedPlays)
	printer.PrintErrors(final.State.Errors)

	if runVerbose {
		if final.State.DeepResearchReport != "" {
			fmt.Printf("\n--- RESEARCH REPORT ---\n%s\n", final.State.DeepResearchReport)
		}
		if final.State.StrategicPlan != "" {
			fmt.Printf("\n--- STRATEGIC PLAN ---\n%s\n", final.State.StrategicPlan)
		}
		for title, pager := range final.State.OnePagers {
			fmt.Printf("\n--- ONE-PAGER: %s ---\n%s\n", title, pager)
		}
	}

	if final.Status == types.RunFailed {
		return fmt.Errorf("run failed: %s", final.Error)
	}
	return nil
}

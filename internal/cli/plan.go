package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/ir"
)

var planOutFile string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate an execution plan",
	Long: `Generates an execution plan showing what actions terralite will take
to reach the desired state defined in your configuration.

The plan shows:
  • Resources to be created
  • Resources to be updated (with diff)
  • Resources to be replaced or deleted`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planOutFile, "out", "o", "", "Write the plan artifact to a file for later apply")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := ir.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}

	eng := newEngine()
	plan, err := eng.CreatePlan(ctx, cfg, snapshot)
	if err != nil {
		return fmt.Errorf("plan generation failed: %w", err)
	}

	renderPlanSummary(plan)
	if plan.HasChanges() {
		renderPlanChanges(plan)
	} else {
		fmt.Println("\nNo changes. Infrastructure is up-to-date.")
	}

	if planOutFile != "" {
		if err := plan.WriteFile(planOutFile); err != nil {
			return err
		}
		fmt.Printf("\nPlan saved to %s. Apply it with: terralite apply %s\n", planOutFile, planOutFile)
	}

	return nil
}

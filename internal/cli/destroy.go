package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/engine"
	"github.com/terralite-io/terralite/internal/ir"
)

var destroyAutoApprove bool

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Destroy all managed infrastructure",
	Long: `Plans and executes the teardown of every resource in state, in
reverse dependency order. Resources whose configuration declares
prevent_destroy fail the plan before anything is touched.`,
	RunE: runDestroy,
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyAutoApprove, "auto-approve", false, "Skip interactive approval")
}

func runDestroy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// The config is optional for destroy, but lifecycle flags in it
	// still protect resources.
	cfg, err := ir.LoadConfig(configPath)
	if err != nil {
		cfg = &ir.Config{}
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Lock(); err != nil {
		return err
	}
	defer store.Unlock()

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}

	eng := newEngine()
	plan, err := eng.CreateDestroyPlan(ctx, cfg, snapshot)
	if err != nil {
		return fmt.Errorf("destroy plan failed: %w", err)
	}

	renderPlanSummary(plan)
	if !plan.HasChanges() {
		fmt.Println("\nNothing to destroy.")
		return nil
	}
	renderPlanChanges(plan)

	if !destroyAutoApprove {
		if !confirm("Do you really want to destroy all resources?") {
			fmt.Println("Destroy cancelled.")
			return nil
		}
	}

	result, err := eng.ApplyPlanWithCallback(ctx, plan, store, func(event engine.ApplyEvent) {
		if event.Status == "completed" {
			fmt.Printf("%s: destroyed (%s)\n", event.Address, event.Duration.Round(time.Millisecond))
		}
	})
	if err != nil {
		return err
	}

	renderRunResult(result)
	if _, failed, _, _ := result.Counts(); failed > 0 {
		return fmt.Errorf("%d resource(s) failed to destroy", failed)
	}
	return nil
}

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/engine"
	"github.com/terralite-io/terralite/internal/ir"
)

var (
	applyAutoApprove bool
	applyParallelism int
	applyTimeout     time.Duration
)

var applyCmd = &cobra.Command{
	Use:   "apply [plan-file]",
	Short: "Apply the planned changes",
	Long: `Applies a plan against the real external system, updating state as
each operation completes.

With a plan-file argument, the previously saved plan is applied after
verifying it is not stale. Without one, a fresh plan is computed and
shown for approval first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Skip interactive approval")
	applyCmd.Flags().IntVar(&applyParallelism, "parallelism", engine.DefaultParallelism, "Maximum concurrent operations")
	applyCmd.Flags().DurationVar(&applyTimeout, "timeout", engine.DefaultTimeout, "Per-operation timeout")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Lock(); err != nil {
		return err
	}
	defer store.Unlock()

	eng := newEngine()
	eng.Parallelism = applyParallelism
	eng.OperationTimeout = applyTimeout

	var plan *ir.Plan
	if len(args) == 1 {
		plan, err = ir.LoadPlan(args[0])
		if err != nil {
			return err
		}
	} else {
		cfg, err := ir.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		snapshot, err := store.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to read state: %w", err)
		}
		plan, err = eng.CreatePlan(ctx, cfg, snapshot)
		if err != nil {
			return fmt.Errorf("plan generation failed: %w", err)
		}
	}

	renderPlanSummary(plan)
	if !plan.HasChanges() {
		fmt.Println("\nNo changes. Infrastructure is up-to-date.")
		return nil
	}
	renderPlanChanges(plan)

	if !applyAutoApprove {
		if !confirm("Do you want to perform these actions?") {
			fmt.Println("Apply cancelled.")
			return nil
		}
	}

	result, err := eng.ApplyPlanWithCallback(ctx, plan, store, func(event engine.ApplyEvent) {
		switch event.Status {
		case "started":
			fmt.Printf("%s: %s...\n", event.Address, strings.ToLower(string(event.Action)))
		case "completed":
			fmt.Printf("%s: done (%s)\n", event.Address, event.Duration.Round(time.Millisecond))
		case "failed":
			fmt.Printf("%s: FAILED: %v\n", event.Address, event.Error)
		}
	})
	if err != nil {
		return err
	}

	renderRunResult(result)
	if _, failed, _, _ := result.Counts(); failed > 0 {
		return fmt.Errorf("%d resource(s) failed to apply", failed)
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("\n%s\n  Only 'yes' will be accepted to approve.\n\n  Enter a value: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(answer) == "yes"
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/ir"
)

var showCmd = &cobra.Command{
	Use:   "show [plan-file]",
	Short: "Show the current state or a saved plan",
	Long: `Without arguments, prints the full state document. With a plan-file
argument, renders the saved plan the way 'terralite plan' would.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		plan, err := ir.LoadPlan(args[0])
		if err != nil {
			return err
		}
		renderPlanSummary(plan)
		if plan.HasChanges() {
			renderPlanChanges(plan)
		}
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	snapshot, err := store.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

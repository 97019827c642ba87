package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reconcile state with the real external system",
	Long: `Re-reads every managed resource from its provider and updates the
recorded observed attributes. Resources whose external object no longer
exists are dropped from state; the next plan will recreate them if they
are still declared.`,
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
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
	result, err := eng.Refresh(ctx, store)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	for _, addr := range result.Updated {
		fmt.Printf("%s: attributes updated\n", addr)
	}
	for _, addr := range result.Removed {
		fmt.Printf("%s: external object gone, removed from state\n", addr)
	}
	if len(result.Updated) == 0 && len(result.Removed) == 0 {
		fmt.Println("State is already in sync.")
	} else {
		fmt.Printf("\nRefresh complete: %d updated, %d removed.\n", len(result.Updated), len(result.Removed))
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and modify recorded state",
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every managed resource address",
	RunE:  runStateList,
}

var stateShowCmd = &cobra.Command{
	Use:   "show <address>",
	Short: "Show the full record for one address",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateShow,
}

var stateRmCmd = &cobra.Command{
	Use:   "rm <address>",
	Short: "Forget a resource without destroying it",
	Long: `Removes the record for an address from state. The external object is
left untouched; terralite simply stops managing it. The next plan will
propose creating it again if it is still declared.`,
	Args: cobra.ExactArgs(1),
	RunE: runStateRm,
}

func init() {
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateRmCmd)
}

func runStateList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}

	records, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No resources in state.")
		return nil
	}
	for _, rec := range records {
		fmt.Println(rec.Address)
	}
	return nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}

	rec, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func runStateRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Lock(); err != nil {
		return err
	}
	defer store.Unlock()

	if _, err := store.Get(ctx, args[0]); err != nil {
		return err
	}
	if err := store.Remove(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Removed %s from state. The external object was not touched.\n", args[0])
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/engine"
	"github.com/terralite-io/terralite/internal/ir"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without touching state",
	Long: `Loads the configuration, expands count and for_each, and builds the
dependency graph. Duplicate addresses, unresolved references, and
dependency cycles are reported without contacting any provider or
reading state.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := ir.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	expanded := engine.ExpandMultiplicity(cfg.Resources)
	if _, err := engine.BuildDAG(expanded); err != nil {
		return err
	}

	fmt.Printf("Configuration is valid: %d declared resource(s), %d after expansion.\n", len(cfg.Resources), len(expanded))
	return nil
}

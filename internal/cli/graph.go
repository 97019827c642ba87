package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/engine"
	"github.com/terralite-io/terralite/internal/ir"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Emit the dependency graph in DOT format",
	Long: `Builds the dependency graph from the configuration and prints it in
Graphviz DOT format. Pipe the output to dot to render it:

  terralite graph | dot -Tsvg > graph.svg`,
	RunE: runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := ir.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	expanded := engine.ExpandMultiplicity(cfg.Resources)
	dag, err := engine.BuildDAG(expanded)
	if err != nil {
		return err
	}

	fmt.Print(dag.DOT())
	return nil
}

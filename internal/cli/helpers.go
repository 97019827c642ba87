package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/terralite-io/terralite/internal/engine"
	"github.com/terralite-io/terralite/internal/ir"
	"github.com/terralite-io/terralite/internal/provider"
	"github.com/terralite-io/terralite/internal/state"
	"github.com/terralite-io/terralite/providers/mem"
	"github.com/terralite-io/terralite/providers/null"
)

// newRegistry returns a registry with the built-in providers wired up.
func newRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register("null", func() provider.Provider { return null.New() })
	registry.Register("mem", func() provider.Provider { return mem.New() })
	return registry
}

// openStore selects the state backend: a backend.json next to the
// state file overrides the default local store.
func openStore() (state.Store, error) {
	backendPath := filepath.Join(filepath.Dir(statePath), "backend.json")
	if raw, err := os.ReadFile(backendPath); err == nil {
		var cfg state.BackendConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", backendPath, err)
		}
		return state.NewStore(&cfg)
	}
	return state.NewFileStore(statePath), nil
}

func newEngine() *engine.Engine {
	return engine.NewEngine(newRegistry())
}

// renderPlanChanges prints the detailed change list for a plan.
// Sensitive attribute values are always masked.
func renderPlanChanges(plan *ir.Plan) {
	for _, change := range plan.Changes {
		if change.Action == ir.ActionNoOp {
			continue
		}

		symbol := "~"
		color := "\033[33m"
		switch change.Action {
		case ir.ActionCreate:
			symbol, color = "+", "\033[32m"
		case ir.ActionDelete:
			symbol, color = "-", "\033[31m"
		case ir.ActionReplace:
			symbol = "-/+"
		}

		fmt.Printf("\n%s  # %s will be %s%s\n", color, change.Address, change.Action, "\033[0m")
		fmt.Printf("%s  %s %s {\n", color, symbol, change.Address)
		renderPropertyDiff(change, color)
		fmt.Printf("%s    }%s\n", color, "\033[0m")
	}
}

// renderPropertyDiff prints structured property diffs in key order.
func renderPropertyDiff(change *ir.ResourceChange, color string) {
	keys := make([]string, 0, len(change.Diff))
	for key := range change.Diff {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		diff := change.Diff[key]
		before := formatValue(diff.Before, diff.Sensitive)
		after := formatValue(diff.After, diff.Sensitive)
		switch diff.Action {
		case "create":
			fmt.Printf("\033[32m      + %s = %s\033[0m\n", key, after)
		case "delete":
			fmt.Printf("\033[31m      - %s = %s\033[0m\n", key, before)
		case "update":
			marker := "~"
			if diff.ForcesReplacement {
				marker = "-/+"
			}
			fmt.Printf("\033[33m      %s %s = %s -> %s\033[0m\n", marker, key, before, after)
		default:
			fmt.Printf("%s        %s = %s\n", color, key, after)
		}
	}
}

// formatValue returns a human-readable representation of a value.
// Sensitive values never reach the terminal.
func formatValue(v any, sensitive bool) string {
	if sensitive {
		return "(sensitive)"
	}
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case ir.Reference:
		return fmt.Sprintf("(reference to %s)", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// renderPlanSummary prints the plan summary counts.
func renderPlanSummary(plan *ir.Plan) {
	fmt.Println("\nPlan Summary:")
	fmt.Printf("  Create:  %d\n", plan.Summary.Create)
	fmt.Printf("  Update:  %d\n", plan.Summary.Update)
	fmt.Printf("  Delete:  %d\n", plan.Summary.Delete)
	fmt.Printf("  Replace: %d\n", plan.Summary.Replace)
	fmt.Printf("  NoOp:    %d\n", plan.Summary.NoOp)
}

// renderRunResult prints every address's terminal status.
func renderRunResult(result *ir.RunResult) {
	addrs := make([]string, 0, len(result.Resources))
	for addr := range result.Resources {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	fmt.Println()
	for _, addr := range addrs {
		res := result.Resources[addr]
		line := fmt.Sprintf("  %-10s %s", res.Status, addr)
		if res.Error != nil {
			line += fmt.Sprintf("  (%v)", res.Error)
		}
		fmt.Println(line)
	}

	applied, failed, skipped, noop := result.Counts()
	fmt.Printf("\nApply complete: %d applied, %d failed, %d skipped, %d unchanged.\n", applied, failed, skipped, noop)
	if result.Cancelled {
		fmt.Println("Run was cancelled; completed operations were recorded.")
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/logging"
)

var (
	configPath string
	statePath  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "terralite",
	Short: "Minimal declarative infrastructure reconciliation",
	Long: `Terralite reconciles declared resource configuration with recorded state:
it computes a reviewable plan, applies it in dependency order, and keeps a
durable state record of everything it manages.

Plans and applies are always two separate steps, so changes can be
inspected before anything irreversible happens.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "terralite.json", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", ".terralite/state.json", "Path to the local state file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(versionCmd)
}

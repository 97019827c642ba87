package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new Terralite project",
	Long:  `Creates the state directory and a starter configuration file.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(filepath.Dir(statePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		content := `{
  "resources": [
  ]
}
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", configPath, err)
		}
		fmt.Printf("Created %s\n", configPath)
	}

	// Persist an empty state document so the lineage is fixed up front.
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		store, err := openStore()
		if err != nil {
			return err
		}
		snapshot, err := store.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.WriteSnapshot(cmd.Context(), snapshot); err != nil {
			return fmt.Errorf("failed to create state file: %w", err)
		}
		fmt.Printf("Created %s\n", statePath)
	}

	fmt.Println("\nTerralite initialized successfully!")
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s to declare your resources\n", configPath)
	fmt.Println("  2. Run 'terralite plan' to see what will be created")
	fmt.Println("  3. Run 'terralite apply' to create your infrastructure")

	return nil
}

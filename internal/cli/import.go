package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terralite-io/terralite/internal/ir"
)

var importProvider string

var importCmd = &cobra.Command{
	Use:   "import <address> <external-id>",
	Short: "Bring an existing external object under management",
	Long: `Binds a pre-existing external object to a resource address without
provisioning anything. The object is read from the provider and its
observed attributes become the state record for the address.

After importing, add matching configuration for the address; the next
plan shows any drift as an ordinary update or replace.

Example:
  terralite import mem.bucket.assets bucket-7f3a91`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importProvider, "provider", "", "Provider name (defaults to the first segment of the type)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	addr, err := ir.ParseAddress(args[0])
	if err != nil {
		return err
	}
	externalID := args[1]

	providerName := importProvider
	if providerName == "" {
		// Convention: types are namespaced as provider.kind.
		providerName = strings.SplitN(addr.Type, ".", 2)[0]
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Lock(); err != nil {
		return err
	}
	defer store.Unlock()

	eng := newEngine()
	rec, err := eng.Import(ctx, store, providerName, addr, externalID)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %s (external id %s) with %d observed attribute(s).\n", rec.Address, rec.ExternalID, len(rec.Attributes))
	fmt.Println("Add matching configuration, then run 'terralite plan' to check for drift.")
	return nil
}

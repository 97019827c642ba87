package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/terralite-io/terralite/internal/ir"
	"github.com/terralite-io/terralite/internal/logging"
	"github.com/terralite-io/terralite/internal/provider"
	"github.com/terralite-io/terralite/internal/state"
)

// RefreshResult summarizes a drift-detection pass.
type RefreshResult struct {
	Updated []string // addresses whose observed attributes changed
	Removed []string // addresses whose external object vanished
}

// Refresh re-reads every recorded resource from its provider and
// updates the stored observed attributes. Records whose external
// object no longer exists are removed: the next plan will recreate
// them if they are still declared.
func (e *Engine) Refresh(ctx context.Context, store state.Store) (*RefreshResult, error) {
	records, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{}
	for _, rec := range records {
		prov, err := e.providerFor(rec.Provider)
		if err != nil {
			return nil, err
		}

		observed, err := prov.Read(ctx, rec.Type, rec.ExternalID)
		if err != nil {
			if errors.Is(err, provider.ErrNotFound) {
				logging.Warn("external object vanished", "address", rec.Address, "external_id", rec.ExternalID)
				if err := store.Remove(ctx, rec.Address); err != nil {
					return nil, err
				}
				result.Removed = append(result.Removed, rec.Address)
				continue
			}
			return nil, fmt.Errorf("failed to refresh %s: %w", rec.Address, err)
		}

		if attrsEqual(rec.Attributes, observed) {
			continue
		}

		updated := rec.Clone()
		updated.Attributes = ir.DeepCopyProperties(observed)
		if err := store.Put(ctx, rec.Address, updated); err != nil {
			return nil, err
		}
		result.Updated = append(result.Updated, rec.Address)
	}

	return result, nil
}

func attrsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !ir.ValuesEqual(av, bv) {
			return false
		}
	}
	return true
}

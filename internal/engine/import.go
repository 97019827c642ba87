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

// Import binds a pre-existing external object to a resource address
// without provisioning anything. The object is read from the provider
// and its observed attributes become the address's state record. Import
// never overwrites existing state.
//
// The caller is expected to write matching configuration afterwards; a
// subsequent plan surfaces any drift between the imported object and
// the declared attributes as an ordinary Update or Replace.
func (e *Engine) Import(ctx context.Context, store state.Store, providerName string, addr ir.Address, externalID string) (*ir.ResourceRecord, error) {
	address := addr.String()

	if _, err := store.Get(ctx, address); err == nil {
		return nil, &AddressAlreadyBoundError{Address: address}
	} else if !errors.Is(err, state.ErrAddressNotFound) {
		return nil, err
	}

	prov, err := e.providerFor(providerName)
	if err != nil {
		return nil, err
	}

	logging.Debug("importing resource", "address", address, "external_id", externalID)

	observed, err := prov.Read(ctx, addr.Type, externalID)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return nil, &ExternalObjectNotFoundError{Address: address, ExternalID: externalID}
		}
		return nil, fmt.Errorf("failed to read %s from provider %s: %w", externalID, providerName, err)
	}

	rec := &ir.ResourceRecord{
		Address:    address,
		Type:       addr.Type,
		Name:       addr.Name,
		Provider:   providerName,
		ExternalID: externalID,
		// Imported inputs mirror the observed attributes so the next
		// plan diffs declared config directly against reality.
		Inputs:     ir.DeepCopyProperties(observed),
		Attributes: ir.DeepCopyProperties(observed),
	}

	if err := store.Put(ctx, address, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

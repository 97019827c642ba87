package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terralite-io/terralite/internal/ir"
)

func TestImport_BindsExternalObject(t *testing.T) {
	eng, memProv := newTestEngine()
	store := newTestStore(t)
	ctx := context.Background()

	memProv.Seed("mem.bucket", "bucket-7f3a91", map[string]any{
		"name": "legacy-assets",
		"id":   "bucket-7f3a91",
	})

	addr, err := ir.ParseAddress("mem.bucket.assets")
	require.NoError(t, err)

	rec, err := eng.Import(ctx, store, "mem", addr, "bucket-7f3a91")
	require.NoError(t, err)

	assert.Equal(t, "mem.bucket.assets", rec.Address)
	assert.Equal(t, "bucket-7f3a91", rec.ExternalID)
	assert.Equal(t, "legacy-assets", rec.Attributes["name"])

	stored, err := store.Get(ctx, "mem.bucket.assets")
	require.NoError(t, err)
	assert.Equal(t, "bucket-7f3a91", stored.ExternalID)
}

func TestImport_ThenMatchingConfigPlansNoOp(t *testing.T) {
	eng, memProv := newTestEngine()
	store := newTestStore(t)
	ctx := context.Background()

	memProv.Seed("mem.bucket", "bucket-1", map[string]any{
		"name": "legacy-assets",
		"id":   "bucket-1",
	})

	addr, err := ir.ParseAddress("mem.bucket.assets")
	require.NoError(t, err)
	_, err = eng.Import(ctx, store, "mem", addr, "bucket-1")
	require.NoError(t, err)

	// Configuration matching the imported object diffs clean. The "id"
	// input recorded from observation is computed, so it never diffs.
	cfg := &ir.Config{Resources: []*ir.Resource{
		{Type: "mem.bucket", Name: "assets", Provider: "mem", Properties: map[string]any{"name": "legacy-assets"}},
	}}

	snapshot, err := store.Snapshot(ctx)
	require.NoError(t, err)
	plan, err := eng.CreatePlan(ctx, cfg, snapshot)
	require.NoError(t, err)

	assert.False(t, plan.HasChanges())
	assert.Equal(t, 1, plan.Summary.NoOp)
}

func TestImport_UnknownExternalID(t *testing.T) {
	eng, _ := newTestEngine()
	store := newTestStore(t)

	addr, err := ir.ParseAddress("mem.bucket.assets")
	require.NoError(t, err)

	_, err = eng.Import(context.Background(), store, "mem", addr, "no-such-id")
	require.Error(t, err)

	var notFound *ExternalObjectNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no-such-id", notFound.ExternalID)
}

func TestImport_NeverOverwritesExistingState(t *testing.T) {
	eng, memProv := newTestEngine()
	store := newTestStore(t)
	ctx := context.Background()

	memProv.Seed("mem.bucket", "bucket-1", map[string]any{"id": "bucket-1"})
	memProv.Seed("mem.bucket", "bucket-2", map[string]any{"id": "bucket-2"})

	addr, err := ir.ParseAddress("mem.bucket.assets")
	require.NoError(t, err)

	_, err = eng.Import(ctx, store, "mem", addr, "bucket-1")
	require.NoError(t, err)

	_, err = eng.Import(ctx, store, "mem", addr, "bucket-2")
	require.Error(t, err)

	var bound *AddressAlreadyBoundError
	require.ErrorAs(t, err, &bound)

	rec, err := store.Get(ctx, "mem.bucket.assets")
	require.NoError(t, err)
	assert.Equal(t, "bucket-1", rec.ExternalID)
}

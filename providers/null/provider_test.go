package null

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terralite-io/terralite/internal/provider"
)

func TestNullProviderLifecycle(t *testing.T) {
	p := New()
	ctx := context.Background()

	id, observed, err := p.Create(ctx, "null_resource", map[string]any{"triggers": "v1"})
	require.NoError(t, err)
	assert.Equal(t, "null-1", id)
	assert.Equal(t, "v1", observed["triggers"])

	read, err := p.Read(ctx, "null_resource", id)
	require.NoError(t, err)
	assert.Equal(t, "v1", read["triggers"])

	require.NoError(t, p.Delete(ctx, "null_resource", id))
	_, err = p.Read(ctx, "null_resource", id)
	assert.ErrorIs(t, err, provider.ErrNotFound)

	// Deleting an already-absent object is not an error.
	assert.NoError(t, p.Delete(ctx, "null_resource", id))
}

func TestNullProviderSchema(t *testing.T) {
	p := New()
	schema, err := p.Schema("null_resource")
	require.NoError(t, err)

	assert.True(t, schema.Attribute("triggers").ForcesReplacement)
	assert.True(t, schema.Attribute("id").Computed)
}

func TestNullProviderUpdateMissing(t *testing.T) {
	p := New()
	_, err := p.Update(context.Background(), "null_resource", "null-99", nil)
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

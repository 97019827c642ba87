package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{ schema *ResourceTypeSchema }

func (f *fakeProvider) Schema(resourceType string) (*ResourceTypeSchema, error) {
	return f.schema, nil
}
func (f *fakeProvider) Create(ctx context.Context, resourceType string, attrs map[string]any) (string, map[string]any, error) {
	return "fake-1", attrs, nil
}
func (f *fakeProvider) Read(ctx context.Context, resourceType, externalID string) (map[string]any, error) {
	return nil, ErrNotFound
}
func (f *fakeProvider) Update(ctx context.Context, resourceType, externalID string, attrs map[string]any) (map[string]any, error) {
	return attrs, nil
}
func (f *fakeProvider) Delete(ctx context.Context, resourceType, externalID string) error {
	return nil
}

func TestRegistryLoadAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register("fake", func() Provider { return &fakeProvider{} })

	_, err := registry.Get("fake")
	assert.Error(t, err, "provider is not constructed before Load")

	require.NoError(t, registry.Load("fake"))
	p, err := registry.Get("fake")
	require.NoError(t, err)
	assert.NotNil(t, p)

	// Load is idempotent and keeps the cached instance.
	require.NoError(t, registry.Load("fake"))
	again, err := registry.Get("fake")
	require.NoError(t, err)
	assert.Same(t, p, again)
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewRegistry()
	err := registry.Load("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRegistryPutInstalls(t *testing.T) {
	registry := NewRegistry()
	instance := &fakeProvider{}
	registry.Put("fake", instance)

	require.NoError(t, registry.Load("fake"))
	p, err := registry.Get("fake")
	require.NoError(t, err)
	assert.Same(t, instance, p)
}

func TestSchemaForNeverNil(t *testing.T) {
	schema, err := SchemaFor(&fakeProvider{}, "any.type")
	require.NoError(t, err)
	require.NotNil(t, schema)

	// Unknown attributes default to in-place updatable.
	attr := schema.Attribute("whatever")
	assert.False(t, attr.ForcesReplacement)
	assert.False(t, attr.Computed)
	assert.False(t, attr.Sensitive)
}

func TestAttributeNilSchema(t *testing.T) {
	var schema *ResourceTypeSchema
	assert.Equal(t, AttributeSchema{}, schema.Attribute("x"))
}

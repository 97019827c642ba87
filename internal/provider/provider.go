package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Read when the external object does not
// exist.
var ErrNotFound = errors.New("external object not found")

// Provider is the boundary to an external system. The engine never
// embeds provider-specific logic; implementations are supplied
// externally and registered by name.
type Provider interface {
	// Schema returns the policy table for a resource type: which
	// attributes force replacement, which are sensitive, which are
	// computed by the external system.
	Schema(resourceType string) (*ResourceTypeSchema, error)

	// Create provisions a new object and returns its external id and
	// observed attributes.
	Create(ctx context.Context, resourceType string, attrs map[string]any) (string, map[string]any, error)

	// Read returns the observed attributes of an existing object, or
	// ErrNotFound.
	Read(ctx context.Context, resourceType, externalID string) (map[string]any, error)

	// Update applies an in-place attribute change and returns the new
	// observed attributes.
	Update(ctx context.Context, resourceType, externalID string, attrs map[string]any) (map[string]any, error)

	// Delete tears the object down. Deleting an already-absent object is
	// not an error.
	Delete(ctx context.Context, resourceType, externalID string) error
}

// ResourceTypeSchema is the per-type diff policy: replace-vs-update
// classification is provider data, not an engine rule.
type ResourceTypeSchema struct {
	Attributes map[string]AttributeSchema
}

type AttributeSchema struct {
	// ForcesReplacement marks attributes that cannot change in place.
	ForcesReplacement bool
	// Sensitive attributes never appear in human-readable output.
	Sensitive bool
	// Computed attributes are assigned by the external system and are
	// excluded from diffing.
	Computed bool
}

// Attribute returns the schema entry for an attribute name. Unknown
// attributes default to plain updatable-in-place.
func (s *ResourceTypeSchema) Attribute(name string) AttributeSchema {
	if s == nil {
		return AttributeSchema{}
	}
	return s.Attributes[name]
}

// SchemaFor is a convenience wrapper that never returns a nil schema.
func SchemaFor(p Provider, resourceType string) (*ResourceTypeSchema, error) {
	schema, err := p.Schema(resourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema for %s: %w", resourceType, err)
	}
	if schema == nil {
		schema = &ResourceTypeSchema{}
	}
	return schema, nil
}

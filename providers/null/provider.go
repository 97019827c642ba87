// Package null implements a provider whose resources exist only in
// memory. A null resource is replaced whenever its "triggers" attribute
// changes, which makes it useful for wiring ordering into a
// configuration without touching a real external system.
package null

import (
	"context"
	"fmt"
	"sync"

	"github.com/terralite-io/terralite/internal/provider"
)

type Provider struct {
	mu      sync.Mutex
	objects map[string]map[string]any
	seq     int
}

func New() *Provider {
	return &Provider{objects: make(map[string]map[string]any)}
}

func (p *Provider) Schema(resourceType string) (*provider.ResourceTypeSchema, error) {
	return &provider.ResourceTypeSchema{
		Attributes: map[string]provider.AttributeSchema{
			"triggers": {ForcesReplacement: true},
			"id":       {Computed: true},
		},
	}, nil
}

func (p *Provider) Create(ctx context.Context, resourceType string, attrs map[string]any) (string, map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	id := fmt.Sprintf("null-%d", p.seq)

	observed := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		observed[k] = v
	}
	observed["id"] = id
	p.objects[id] = observed

	return id, copyAttrs(observed), nil
}

func (p *Provider) Read(ctx context.Context, resourceType, externalID string) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.objects[externalID]
	if !ok {
		return nil, provider.ErrNotFound
	}
	return copyAttrs(obj), nil
}

func (p *Provider) Update(ctx context.Context, resourceType, externalID string, attrs map[string]any) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[externalID]; !ok {
		return nil, provider.ErrNotFound
	}

	observed := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		observed[k] = v
	}
	observed["id"] = externalID
	p.objects[externalID] = observed

	return copyAttrs(observed), nil
}

func (p *Provider) Delete(ctx context.Context, resourceType, externalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.objects, externalID)
	return nil
}

func copyAttrs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Package mem implements an in-memory provider simulating a small
// external system. Objects can be seeded out of band (for import
// scenarios), schemas configured per resource type, and failures or
// latency injected per operation, which makes it the workhorse for
// engine tests and local demos.
package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/terralite-io/terralite/internal/provider"
)

// CallCounts tallies provider operations, for asserting exactly-once
// execution.
type CallCounts struct {
	Creates int
	Reads   int
	Updates int
	Deletes int
}

type object struct {
	resourceType string
	attrs        map[string]any
}

type Provider struct {
	mu      sync.Mutex
	objects map[string]*object
	schemas map[string]*provider.ResourceTypeSchema
	calls   CallCounts
	seq     int

	// failures maps "op:resourceType" to an injected error.
	failures map[string]error
	latency  time.Duration
}

func New() *Provider {
	return &Provider{
		objects:  make(map[string]*object),
		schemas:  make(map[string]*provider.ResourceTypeSchema),
		failures: make(map[string]error),
	}
}

// Seed installs an externally created object, as if provisioned by hand
// in a portal.
func (p *Provider) Seed(resourceType, externalID string, attrs map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[externalID] = &object{resourceType: resourceType, attrs: copyAttrs(attrs)}
}

// SetSchema configures the diff policy table for a resource type.
func (p *Provider) SetSchema(resourceType string, schema *provider.ResourceTypeSchema) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schemas[resourceType] = schema
}

// FailWith injects an error for an operation ("create", "read",
// "update", "delete") on a resource type. Pass nil to clear.
func (p *Provider) FailWith(op, resourceType string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := op + ":" + resourceType
	if err == nil {
		delete(p.failures, key)
		return
	}
	p.failures[key] = err
}

// SetLatency makes every operation sleep, for timeout tests.
func (p *Provider) SetLatency(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latency = d
}

// Calls returns the operation tallies so far.
func (p *Provider) Calls() CallCounts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Object returns a copy of a stored object's attributes, or false.
func (p *Provider) Object(externalID string) (map[string]any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	obj, ok := p.objects[externalID]
	if !ok {
		return nil, false
	}
	return copyAttrs(obj.attrs), true
}

func (p *Provider) Schema(resourceType string) (*provider.ResourceTypeSchema, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if schema, ok := p.schemas[resourceType]; ok {
		return schema, nil
	}
	return &provider.ResourceTypeSchema{
		Attributes: map[string]provider.AttributeSchema{
			"id": {Computed: true},
		},
	}, nil
}

func (p *Provider) Create(ctx context.Context, resourceType string, attrs map[string]any) (string, map[string]any, error) {
	if err := p.begin(ctx, "create", resourceType, func() { p.calls.Creates++ }); err != nil {
		return "", nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	id := fmt.Sprintf("%s-%d", resourceType, p.seq)

	observed := copyAttrs(attrs)
	observed["id"] = id
	p.objects[id] = &object{resourceType: resourceType, attrs: observed}

	return id, copyAttrs(observed), nil
}

func (p *Provider) Read(ctx context.Context, resourceType, externalID string) (map[string]any, error) {
	if err := p.begin(ctx, "read", resourceType, func() { p.calls.Reads++ }); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.objects[externalID]
	if !ok {
		return nil, provider.ErrNotFound
	}
	return copyAttrs(obj.attrs), nil
}

func (p *Provider) Update(ctx context.Context, resourceType, externalID string, attrs map[string]any) (map[string]any, error) {
	if err := p.begin(ctx, "update", resourceType, func() { p.calls.Updates++ }); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.objects[externalID]
	if !ok {
		return nil, provider.ErrNotFound
	}

	observed := copyAttrs(attrs)
	observed["id"] = externalID
	obj.attrs = observed

	return copyAttrs(observed), nil
}

func (p *Provider) Delete(ctx context.Context, resourceType, externalID string) error {
	if err := p.begin(ctx, "delete", resourceType, func() { p.calls.Deletes++ }); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.objects, externalID)
	return nil
}

// begin applies latency, counts the call and returns any injected
// failure.
func (p *Provider) begin(ctx context.Context, op, resourceType string, count func()) error {
	p.mu.Lock()
	latency := p.latency
	count()
	err := p.failures[op+":"+resourceType]
	p.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func copyAttrs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

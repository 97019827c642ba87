package engine

import (
	"fmt"
	"time"

	"github.com/terralite-io/terralite/internal/ir"
	"github.com/terralite-io/terralite/internal/provider"
)

const (
	// DefaultParallelism bounds the apply worker pool.
	DefaultParallelism = 10

	// DefaultTimeout is the default per-operation provider call timeout.
	DefaultTimeout = 30 * time.Minute
)

// Engine orchestrates plan, apply, import and refresh for one
// configuration root. It holds no ambient state; configuration and
// state store are passed explicitly to every entry point.
type Engine struct {
	registry *provider.Registry

	// Parallelism bounds concurrent provider operations during apply.
	Parallelism int

	// OperationTimeout is the per-provider-call timeout. A timed-out
	// operation is a failure, never a success.
	OperationTimeout time.Duration
}

func NewEngine(registry *provider.Registry) *Engine {
	return &Engine{
		registry:         registry,
		Parallelism:      DefaultParallelism,
		OperationTimeout: DefaultTimeout,
	}
}

// providerFor lazily loads and returns the provider for a resource.
func (e *Engine) providerFor(name string) (provider.Provider, error) {
	if err := e.registry.Load(name); err != nil {
		return nil, fmt.Errorf("failed to load provider %s: %w", name, err)
	}
	return e.registry.Get(name)
}

// schemaFor returns the diff policy table for a resource, never nil.
func (e *Engine) schemaFor(providerName, resourceType string) (*provider.ResourceTypeSchema, error) {
	prov, err := e.providerFor(providerName)
	if err != nil {
		return nil, err
	}
	return provider.SchemaFor(prov, resourceType)
}

// stateIndex maps addresses to their records for quick lookup.
func stateIndex(s *ir.State) map[string]*ir.ResourceRecord {
	idx := make(map[string]*ir.ResourceRecord, len(s.Resources))
	for _, rec := range s.Resources {
		idx[rec.Address] = rec
	}
	return idx
}

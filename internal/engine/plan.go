package engine

import (
	"context"
	"fmt"

	"github.com/terralite-io/terralite/internal/ir"
	"github.com/terralite-io/terralite/internal/logging"
)

// CreatePlan computes the operations needed to reconcile the declared
// configuration with the given state snapshot. Planning performs no
// provider calls and is idempotent: the same config and state always
// produce the same plan.
func (e *Engine) CreatePlan(ctx context.Context, cfg *ir.Config, state *ir.State) (*ir.Plan, error) {
	logging.Debug("creating plan", "resources", len(cfg.Resources), "state_resources", len(state.Resources))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	expanded := ExpandMultiplicity(cfg.Resources)

	dag, err := BuildDAG(expanded)
	if err != nil {
		return nil, err
	}

	configByAddr := make(map[string]*ir.Resource, len(expanded))
	for _, res := range expanded {
		configByAddr[res.Address().String()] = res
	}
	recorded := stateIndex(state)

	plan := &ir.Plan{
		Metadata: ir.NewPlanMetadata(state),
		Changes:  []*ir.ResourceChange{},
		Summary:  &ir.PlanSummary{},
	}

	// Desired resources, in creation order.
	for _, addr := range dag.CreationOrder() {
		res := configByAddr[addr]

		if err := checkConditions(addr, "precondition", res.Preconditions, res.Properties); err != nil {
			return nil, err
		}

		schema, err := e.schemaFor(res.Provider, res.Type)
		if err != nil {
			return nil, err
		}

		change := &ir.ResourceChange{
			Address: addr,
			Desired: res,
			Depends: dag.Dependencies(addr),
		}

		prior, exists := recorded[addr]
		if !exists {
			change.Action = ir.ActionCreate
			change.Diff = createDiff(res.Properties, schema)
			plan.Changes = append(plan.Changes, change)
			plan.Summary.Create++
			continue
		}

		change.Prior = prior.Clone()

		var ignore []string
		if res.Lifecycle != nil {
			ignore = res.Lifecycle.IgnoreChanges
		}
		diff, action := diffAttributes(prior.Inputs, res.Properties, schema, ignore)
		if action == ir.ActionNoOp {
			change.Action = ir.ActionNoOp
			plan.Changes = append(plan.Changes, change)
			plan.Summary.NoOp++
			continue
		}

		if action == ir.ActionReplace && res.Lifecycle != nil && res.Lifecycle.PreventDestroy {
			return nil, &DestructionForbiddenError{Address: addr, Action: string(action)}
		}

		change.Action = action
		change.Diff = diff
		plan.Changes = append(plan.Changes, change)
		switch action {
		case ir.ActionUpdate:
			plan.Summary.Update++
		case ir.ActionReplace:
			plan.Summary.Replace++
		}
	}

	// Recorded resources absent from the configuration are destroyed,
	// in reverse dependency order so dependents go first.
	destroys, err := e.planDestroys(state, func(addr string) bool {
		_, declared := configByAddr[addr]
		return !declared
	}, nil)
	if err != nil {
		return nil, err
	}
	plan.Changes = append(plan.Changes, destroys...)
	plan.Summary.Delete += len(destroys)

	return plan, nil
}

// CreateDestroyPlan plans the teardown of everything in state. The
// configuration is still consulted for lifecycle flags: a resource
// declaring prevent_destroy fails the plan before any provider call.
func (e *Engine) CreateDestroyPlan(ctx context.Context, cfg *ir.Config, state *ir.State) (*ir.Plan, error) {
	lifecycles := make(map[string]*ir.Lifecycle)
	if cfg != nil {
		for _, res := range ExpandMultiplicity(cfg.Resources) {
			lifecycles[res.Address().String()] = res.Lifecycle
		}
	}

	plan := &ir.Plan{
		Metadata: ir.NewPlanMetadata(state),
		Changes:  []*ir.ResourceChange{},
		Summary:  &ir.PlanSummary{},
	}

	destroys, err := e.planDestroys(state, func(string) bool { return true }, lifecycles)
	if err != nil {
		return nil, err
	}
	plan.Changes = destroys
	plan.Summary.Delete = len(destroys)

	return plan, nil
}

// planDestroys builds Destroy changes for the selected records, ordered
// so that dependents are destroyed before their dependencies. Each
// change's Depends lists the destroys that must complete first.
func (e *Engine) planDestroys(state *ir.State, selected func(addr string) bool, lifecycles map[string]*ir.Lifecycle) ([]*ir.ResourceChange, error) {
	var records []*ir.ResourceRecord
	for _, rec := range state.Resources {
		if selected(rec.Address) {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	dag, err := BuildDAGFromState(records)
	if err != nil {
		return nil, fmt.Errorf("failed to order destroys: %w", err)
	}

	var changes []*ir.ResourceChange
	for _, addr := range dag.DestructionOrder() {
		rec := state.Find(addr)
		if rec == nil {
			continue
		}
		if lc := lifecycles[addr]; lc != nil && lc.PreventDestroy {
			return nil, &DestructionForbiddenError{Address: addr, Action: string(ir.ActionDelete)}
		}

		schema, err := e.schemaFor(rec.Provider, rec.Type)
		if err != nil {
			return nil, err
		}
		changes = append(changes, &ir.ResourceChange{
			Address: addr,
			Action:  ir.ActionDelete,
			Prior:   rec.Clone(),
			Diff:    deleteDiff(rec.Inputs, schema),
			// A destroy waits for the destroys of everything that
			// depended on this record.
			Depends: dag.Dependents(addr),
		})
	}

	return changes, nil
}

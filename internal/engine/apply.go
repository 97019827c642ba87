package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/terralite-io/terralite/internal/ir"
	"github.com/terralite-io/terralite/internal/logging"
	"github.com/terralite-io/terralite/internal/state"
)

// ApplyEvent reports progress for one address during apply.
type ApplyEvent struct {
	Address  string
	Action   ir.Action
	Status   string // "started", "completed", "failed", "skipped"
	Duration time.Duration
	Error    error
}

// ApplyCallback is called for each apply event if set.
type ApplyCallback func(event ApplyEvent)

// ApplyPlan executes a plan against the state store, recording each
// address's outcome as it completes. The returned RunResult enumerates
// every address's terminal status; err is non-nil only for run-level
// failures (stale plan, unavailable store), never for per-resource
// failures.
func (e *Engine) ApplyPlan(ctx context.Context, plan *ir.Plan, store state.Store) (*ir.RunResult, error) {
	return e.ApplyPlanWithCallback(ctx, plan, store, nil)
}

// ApplyPlanWithCallback executes a plan with progress event callbacks.
// Independent branches of the graph run concurrently, bounded by
// Engine.Parallelism; within a dependency chain execution is strictly
// sequential. Cancelling the context stops dispatch of new operations;
// in-flight operations run to completion and their outcomes are
// recorded before the run reports cancelled.
func (e *Engine) ApplyPlanWithCallback(ctx context.Context, plan *ir.Plan, store state.Store, callback ApplyCallback) (*ir.RunResult, error) {
	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if plan.Metadata != nil && snapshot.Serial != plan.Metadata.StateSerial {
		return nil, &StalePlanError{PlanSerial: plan.Metadata.StateSerial, StateSerial: snapshot.Serial}
	}

	result := ir.NewRunResult()
	defer func() { result.Finished = time.Now() }()

	emit := func(event ApplyEvent) {
		if callback != nil {
			callback(event)
		}
	}

	// Creates, updates and replaces walk the graph forward; destroys
	// run afterwards in reverse dependency order.
	var forward, destroys []*ir.ResourceChange
	for _, change := range plan.Changes {
		switch change.Action {
		case ir.ActionNoOp:
			result.Resources[change.Address] = &ir.ResourceResult{
				Address: change.Address,
				Action:  ir.ActionNoOp,
				Status:  ir.StatusNoOp,
			}
		case ir.ActionDelete:
			destroys = append(destroys, change)
		default:
			forward = append(forward, change)
		}
	}

	e.runPool(ctx, forward, store, result, emit)
	e.runPool(ctx, destroys, store, result, emit)

	if ctx.Err() != nil {
		result.Cancelled = true
	}
	return result, nil
}

// runPool executes one phase of changes with a bounded worker pool. A
// change dispatches only once every dependency in the same phase has
// completed successfully; a failed or skipped dependency marks its
// dependents Skipped without aborting sibling branches.
func (e *Engine) runPool(ctx context.Context, changes []*ir.ResourceChange, store state.Store, result *ir.RunResult, emit func(ApplyEvent)) {
	if len(changes) == 0 {
		return
	}

	changeMap := make(map[string]*ir.ResourceChange, len(changes))
	for _, c := range changes {
		changeMap[c.Address] = c
	}

	// Dependencies restricted to this phase; everything else is
	// already settled.
	deps := make(map[string][]string, len(changes))
	for _, c := range changes {
		for _, dep := range c.Depends {
			if _, ok := changeMap[dep]; ok {
				deps[c.Address] = append(deps[c.Address], dep)
			}
		}
	}

	parallelism := e.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	var (
		mu        sync.Mutex
		cond      = sync.NewCond(&mu)
		completed = make(map[string]bool)
		settled   = make(map[string]bool) // completed, failed or skipped
	)
	sem := make(chan struct{}, parallelism)

	markSettled := func(addr string, res *ir.ResourceResult, ok bool) {
		mu.Lock()
		result.Resources[addr] = res
		if ok {
			completed[addr] = true
		}
		settled[addr] = true
		mu.Unlock()
		cond.Broadcast()
	}

	var wg sync.WaitGroup
	for _, change := range changes {
		wg.Add(1)
		go func(c *ir.ResourceChange) {
			defer wg.Done()

			// Wait until every dependency settles.
			mu.Lock()
			for {
				ready := true
				blocked := false
				for _, dep := range deps[c.Address] {
					if !settled[dep] {
						ready = false
						break
					}
					if !completed[dep] {
						blocked = true
						break
					}
				}
				if blocked {
					mu.Unlock()
					markSettled(c.Address, &ir.ResourceResult{
						Address: c.Address,
						Action:  c.Action,
						Status:  ir.StatusSkipped,
					}, false)
					emit(ApplyEvent{Address: c.Address, Action: c.Action, Status: "skipped"})
					return
				}
				if ready {
					break
				}
				cond.Wait()
			}
			mu.Unlock()

			// Cancellation stops dispatch; this operation never starts.
			if ctx.Err() != nil {
				markSettled(c.Address, &ir.ResourceResult{
					Address: c.Address,
					Action:  c.Action,
					Status:  ir.StatusSkipped,
					Error:   ctx.Err(),
				}, false)
				emit(ApplyEvent{Address: c.Address, Action: c.Action, Status: "skipped", Error: ctx.Err()})
				return
			}

			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			emit(ApplyEvent{Address: c.Address, Action: c.Action, Status: "started"})

			err := e.applyChange(ctx, c, store)
			duration := time.Since(start)
			if err != nil {
				markSettled(c.Address, &ir.ResourceResult{
					Address:  c.Address,
					Action:   c.Action,
					Status:   ir.StatusFailed,
					Error:    err,
					Duration: duration,
				}, false)
				emit(ApplyEvent{Address: c.Address, Action: c.Action, Status: "failed", Duration: duration, Error: err})
				return
			}

			markSettled(c.Address, &ir.ResourceResult{
				Address:  c.Address,
				Action:   c.Action,
				Status:   ir.StatusApplied,
				Duration: duration,
			}, true)
			emit(ApplyEvent{Address: c.Address, Action: c.Action, Status: "completed", Duration: duration})
		}(change)
	}

	wg.Wait()
}

// applyChange performs one operation against the provider and writes
// the outcome to the state store. On failure no state is written: the
// built-in providers' calls are atomic, so a failed call leaves no
// partially applied object behind.
func (e *Engine) applyChange(ctx context.Context, change *ir.ResourceChange, store state.Store) error {
	addr := change.Address
	logging.Debug("applying change", "address", addr, "action", change.Action)

	timeout := e.OperationTimeout
	if change.Desired != nil && change.Desired.Timeout != "" {
		if d, err := time.ParseDuration(change.Desired.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	switch change.Action {
	case ir.ActionCreate:
		err = e.applyCreate(opCtx, change, store)
	case ir.ActionUpdate:
		err = e.applyUpdate(opCtx, change, store)
	case ir.ActionReplace:
		err = e.applyReplace(opCtx, change, store)
	case ir.ActionDelete:
		err = e.applyDelete(opCtx, change, store)
	default:
		return fmt.Errorf("unknown plan action %q for %s", change.Action, addr)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return &ApplyTimeoutError{Address: addr, Action: string(change.Action)}
		}
		return err
	}
	return nil
}

func (e *Engine) applyCreate(ctx context.Context, change *ir.ResourceChange, store state.Store) error {
	res := change.Desired
	prov, err := e.providerFor(res.Provider)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	attrs, err := e.resolveProperties(ctx, res.Properties, store)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	var externalID string
	var observed map[string]any
	err = RetryWithBackoff(ctx, DefaultRetryPolicy(), func() error {
		var callErr error
		externalID, observed, callErr = prov.Create(ctx, res.Type, attrs)
		return callErr
	}, IsTransientError)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	rec := e.newRecord(change, externalID, attrs, observed)
	if err := store.Put(ctx, change.Address, rec); err != nil {
		return err
	}

	return checkConditions(change.Address, "postcondition", res.Postconditions, observed)
}

func (e *Engine) applyUpdate(ctx context.Context, change *ir.ResourceChange, store state.Store) error {
	res := change.Desired
	prov, err := e.providerFor(res.Provider)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	attrs, err := e.resolveProperties(ctx, res.Properties, store)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	var observed map[string]any
	err = RetryWithBackoff(ctx, DefaultRetryPolicy(), func() error {
		var callErr error
		observed, callErr = prov.Update(ctx, res.Type, change.Prior.ExternalID, attrs)
		return callErr
	}, IsTransientError)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	rec := e.newRecord(change, change.Prior.ExternalID, attrs, observed)
	if err := store.Put(ctx, change.Address, rec); err != nil {
		return err
	}

	return checkConditions(change.Address, "postcondition", res.Postconditions, observed)
}

// applyReplace destroys and recreates a resource whose diff includes a
// replacement-forcing attribute. Default order is destroy before
// create; the CreateBeforeDestroy lifecycle option brings the new
// instance up first, trading transient duplication for zero downtime.
func (e *Engine) applyReplace(ctx context.Context, change *ir.ResourceChange, store state.Store) error {
	res := change.Desired
	prov, err := e.providerFor(res.Provider)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	attrs, err := e.resolveProperties(ctx, res.Properties, store)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	createBeforeDestroy := res.Lifecycle != nil && res.Lifecycle.CreateBeforeDestroy
	oldID := change.Prior.ExternalID

	doCreate := func() (string, map[string]any, error) {
		var externalID string
		var observed map[string]any
		err := RetryWithBackoff(ctx, DefaultRetryPolicy(), func() error {
			var callErr error
			externalID, observed, callErr = prov.Create(ctx, res.Type, attrs)
			return callErr
		}, IsTransientError)
		return externalID, observed, err
	}
	doDelete := func() error {
		return RetryWithBackoff(ctx, DefaultRetryPolicy(), func() error {
			return prov.Delete(ctx, res.Type, oldID)
		}, IsTransientError)
	}

	var externalID string
	var observed map[string]any
	if createBeforeDestroy {
		externalID, observed, err = doCreate()
		if err != nil {
			return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
		}
		// New instance is up; record it before tearing the old one down
		// so an interruption never loses track of either object.
		rec := e.newRecord(change, externalID, attrs, observed)
		if err := store.Put(ctx, change.Address, rec); err != nil {
			return err
		}
		if err := doDelete(); err != nil {
			return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
		}
	} else {
		if err := doDelete(); err != nil {
			return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
		}
		if err := store.Remove(ctx, change.Address); err != nil {
			return err
		}
		externalID, observed, err = doCreate()
		if err != nil {
			return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
		}
		rec := e.newRecord(change, externalID, attrs, observed)
		if err := store.Put(ctx, change.Address, rec); err != nil {
			return err
		}
	}

	return checkConditions(change.Address, "postcondition", res.Postconditions, observed)
}

func (e *Engine) applyDelete(ctx context.Context, change *ir.ResourceChange, store state.Store) error {
	prior := change.Prior
	prov, err := e.providerFor(prior.Provider)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	err = RetryWithBackoff(ctx, DefaultRetryPolicy(), func() error {
		return prov.Delete(ctx, prior.Type, prior.ExternalID)
	}, IsTransientError)
	if err != nil {
		return &ApplyError{Address: change.Address, Action: string(change.Action), Cause: err}
	}

	return store.Remove(ctx, change.Address)
}

// newRecord builds the state record written after a successful create
// or update.
func (e *Engine) newRecord(change *ir.ResourceChange, externalID string, inputs, observed map[string]any) *ir.ResourceRecord {
	res := change.Desired
	return &ir.ResourceRecord{
		Address:      change.Address,
		Type:         res.Type,
		Name:         res.Name,
		Provider:     res.Provider,
		ExternalID:   externalID,
		Inputs:       ir.DeepCopyProperties(res.Properties),
		Attributes:   ir.DeepCopyProperties(observed),
		Dependencies: append([]string(nil), change.Depends...),
	}
}

// resolveProperties substitutes Reference values with the referenced
// resources' observed attributes, read from the state store. References
// resolve by graph-walk substitution over the tagged value tree, never
// by string interpolation.
func (e *Engine) resolveProperties(ctx context.Context, props map[string]any, store state.Store) (map[string]any, error) {
	resolved, err := resolveValue(ctx, props, store)
	if err != nil {
		return nil, err
	}
	out, _ := resolved.(map[string]any)
	return out, nil
}

func resolveValue(ctx context.Context, v any, store state.Store) (any, error) {
	switch val := v.(type) {
	case ir.Reference:
		rec, err := store.Get(ctx, val.Address)
		if err != nil {
			if errors.Is(err, state.ErrAddressNotFound) {
				return nil, fmt.Errorf("reference %s: resource has no state", val)
			}
			return nil, err
		}
		if attr, ok := rec.Attributes[val.Attribute]; ok {
			return attr, nil
		}
		if attr, ok := rec.Inputs[val.Attribute]; ok {
			return attr, nil
		}
		return nil, fmt.Errorf("reference %s: attribute %q not found on %s", val, val.Attribute, val.Address)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			resolved, err := resolveValue(ctx, item, store)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := resolveValue(ctx, item, store)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

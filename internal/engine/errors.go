package engine

import (
	"fmt"
	"strings"
)

// Configuration errors are detected at plan time, before any external
// side effect, and always name the offending address(es).

// CyclicDependencyError reports a dependency cycle by its address
// sequence.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// UnresolvedReferenceError reports an attribute or dependsOn entry
// naming an address not present in the configuration.
type UnresolvedReferenceError struct {
	Address string // referencing resource
	Target  string // address that does not exist
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("resource %s references %s, which is not declared in the configuration", e.Address, e.Target)
}

// DestructionForbiddenError is raised at plan time when a resource with
// prevent_destroy would be destroyed or replaced. No provider call is
// ever issued for it.
type DestructionForbiddenError struct {
	Address string
	Action  string
}

func (e *DestructionForbiddenError) Error() string {
	return fmt.Sprintf("resource %s has prevent_destroy set but the plan requires %s", e.Address, e.Action)
}

// ConditionError carries the author-supplied diagnostic of a failed
// precondition or postcondition.
type ConditionError struct {
	Address   string
	Phase     string // "precondition" or "postcondition"
	Attribute string
	Message   string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("%s failed for %s (attribute %q): %s", e.Phase, e.Address, e.Attribute, e.Message)
}

// StalePlanError rejects applying a plan computed against an older
// state serial. A stale plan must be recomputed, never replayed.
type StalePlanError struct {
	PlanSerial  int
	StateSerial int
}

func (e *StalePlanError) Error() string {
	return fmt.Sprintf("plan was computed against state serial %d but the store is at serial %d; run plan again", e.PlanSerial, e.StateSerial)
}

// Apply errors are localized to the failing address and its dependents;
// sibling branches of the graph keep running.

// ApplyError wraps a provider failure for one address.
type ApplyError struct {
	Address string
	Action  string
	Cause   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", strings.ToLower(e.Action), e.Address, e.Cause)
}

func (e *ApplyError) Unwrap() error { return e.Cause }

// ApplyTimeoutError reports an operation that exceeded its timeout.
// Timeouts are fail-closed: the operation counts as failed, never as
// succeeded or unknown.
type ApplyTimeoutError struct {
	Address string
	Action  string
}

func (e *ApplyTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out for %s", strings.ToLower(e.Action), e.Address)
}

// Import errors.

// ExternalObjectNotFoundError reports an import of an id the external
// system does not know.
type ExternalObjectNotFoundError struct {
	Address    string
	ExternalID string
}

func (e *ExternalObjectNotFoundError) Error() string {
	return fmt.Sprintf("cannot import %s: no external object with id %q", e.Address, e.ExternalID)
}

// AddressAlreadyBoundError reports an import onto an address that
// already has state. Import never overwrites.
type AddressAlreadyBoundError struct {
	Address string
}

func (e *AddressAlreadyBoundError) Error() string {
	return fmt.Sprintf("cannot import %s: state already exists for this address", e.Address)
}

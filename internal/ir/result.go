package ir

import "time"

// ResourceStatus is the terminal status of one address in a run.
type ResourceStatus string

const (
	StatusApplied ResourceStatus = "APPLIED"
	StatusFailed  ResourceStatus = "FAILED"
	StatusSkipped ResourceStatus = "SKIPPED"
	StatusNoOp    ResourceStatus = "NOOP"
)

// RunResult enumerates every address's terminal status after an apply.
// A partially applied run is reported address by address, never as a
// single pass/fail flag.
type RunResult struct {
	Started   time.Time
	Finished  time.Time
	Cancelled bool
	Resources map[string]*ResourceResult
}

type ResourceResult struct {
	Address  string
	Action   Action
	Status   ResourceStatus
	Error    error
	Duration time.Duration
}

func NewRunResult() *RunResult {
	return &RunResult{
		Started:   time.Now(),
		Resources: make(map[string]*ResourceResult),
	}
}

// Counts tallies terminal statuses.
func (r *RunResult) Counts() (applied, failed, skipped, noop int) {
	for _, res := range r.Resources {
		switch res.Status {
		case StatusApplied:
			applied++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		case StatusNoOp:
			noop++
		}
	}
	return
}

// Errors returns the per-address failures in no particular order.
func (r *RunResult) Errors() []error {
	var errs []error
	for _, res := range r.Resources {
		if res.Error != nil {
			errs = append(errs, res.Error)
		}
	}
	return errs
}

package ir

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Action classifies what the executor will do for one address.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionReplace Action = "REPLACE"
	ActionDelete  Action = "DELETE"
	ActionNoOp    Action = "NOOP"
)

// Plan is an immutable, reviewable execution plan. It is either applied
// in full or discarded; a plan computed against an older state serial is
// rejected at apply time.
type Plan struct {
	Metadata *PlanMetadata     `json:"metadata"`
	Changes  []*ResourceChange `json:"changes"`
	Summary  *PlanSummary      `json:"summary"`
}

type PlanMetadata struct {
	Timestamp string `json:"timestamp"`
	// StateSerial is the serial of the state document the plan was
	// computed against. Apply refuses a plan whose serial is stale.
	StateSerial  int    `json:"stateSerial"`
	StateLineage string `json:"stateLineage,omitempty"`
}

// ResourceChange is one planned operation: address, action and the
// attribute transition it performs.
type ResourceChange struct {
	Address string                   `json:"address"`
	Action  Action                   `json:"action"`
	Desired *Resource                `json:"desired,omitempty"`
	Prior   *ResourceRecord          `json:"prior,omitempty"`
	Diff    map[string]*PropertyDiff `json:"diff,omitempty"`

	// Depends lists the concrete addresses whose operations must
	// complete before this one may start. For destroys these are the
	// destroys of dependent records.
	Depends []string `json:"depends,omitempty"`
}

type PropertyDiff struct {
	Before            any    `json:"before,omitempty"`
	After             any    `json:"after,omitempty"`
	Sensitive         bool   `json:"sensitive,omitempty"`
	ForcesReplacement bool   `json:"forcesReplacement,omitempty"`
	Action            string `json:"action"` // "create", "update", "delete"
}

// HasChanges reports whether applying the plan would perform any
// operation.
func (p *Plan) HasChanges() bool {
	s := p.Summary
	return s.Create+s.Update+s.Delete+s.Replace > 0
}

type PlanSummary struct {
	Create  int `json:"create"`
	Update  int `json:"update"`
	Delete  int `json:"delete"`
	Replace int `json:"replace"`
	NoOp    int `json:"noop"`
}

func NewPlanMetadata(state *State) *PlanMetadata {
	return &PlanMetadata{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		StateSerial:  state.Serial,
		StateLineage: state.Lineage,
	}
}

// WriteFile saves the plan artifact as JSON for later review or apply.
func (p *Plan) WriteFile(path string) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write plan file %s: %w", path, err)
	}
	return nil
}

// LoadPlan reads a saved plan artifact.
func LoadPlan(path string) (*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file %s: %w", path, err)
	}
	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	for _, change := range plan.Changes {
		if change.Desired != nil {
			change.Desired.Properties = DecodeProperties(change.Desired.Properties)
			if addr, err := ParseAddress(change.Address); err == nil {
				change.Desired.Index = addr.Index
			}
		}
		if change.Prior != nil {
			change.Prior.Attributes = DecodeProperties(change.Prior.Attributes)
			change.Prior.Inputs = DecodeProperties(change.Prior.Inputs)
		}
	}
	return &plan, nil
}

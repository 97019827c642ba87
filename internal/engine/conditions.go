package engine

import (
	"fmt"

	"github.com/terralite-io/terralite/internal/ir"
)

// checkConditions evaluates a resource's declarative validators against
// an attribute map. Preconditions run on desired attributes at plan
// time; postconditions run on observed attributes after apply.
func checkConditions(addr string, phase string, conds []ir.Condition, attrs map[string]any) error {
	for _, cond := range conds {
		if err := evalCondition(addr, phase, cond, attrs); err != nil {
			return err
		}
	}
	return nil
}

func evalCondition(addr, phase string, cond ir.Condition, attrs map[string]any) error {
	val, present := attrs[cond.Attribute]

	fail := func() error {
		return &ConditionError{
			Address:   addr,
			Phase:     phase,
			Attribute: cond.Attribute,
			Message:   cond.ErrorMessage,
		}
	}

	switch cond.Operator {
	case "set":
		if !present || val == nil || val == "" {
			return fail()
		}
	case "eq":
		if !present || !ir.ValuesEqual(val, cond.Value) {
			return fail()
		}
	case "neq":
		if present && ir.ValuesEqual(val, cond.Value) {
			return fail()
		}
	default:
		return fmt.Errorf("resource %s: unknown condition operator %q", addr, cond.Operator)
	}
	return nil
}

package ir

import (
	"encoding/json"
	"fmt"
)

// Reference is an unresolved pointer to another resource's attribute.
// It is a tagged value, kept distinct from literals until the apply
// executor substitutes the referenced resource's observed attribute.
// References are never evaluated by string interpolation.
type Reference struct {
	Address   string `json:"$ref"`
	Attribute string `json:"attr"`
}

func (r Reference) String() string {
	return r.Address + "." + r.Attribute
}

/// MarshalJSON encodes a reference as {"$ref": "type.name", "attr": "id"}.
func (r Reference) MarshalJSON() ([]byte, error) {
	type wire Reference
	return json.Marshal(wire(r))
}

// DecodeProperties rehydrates Reference values in a property tree that was
// unmarshalled from JSON. Any map of the exact shape {"$ref": string,
// "attr": string} becomes an ir.Reference.
func DecodeProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out, _ := decodeValue(props).(map[string]any)
	return out
}

func decodeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := asReference(val); ok {
			return ref
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = decodeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = decodeValue(item)
		}
		return out
	default:
		return v
	}
}

func asReference(m map[string]any) (Reference, bool) {
	if len(m) != 2 {
		return Reference{}, false
	}
	addr, ok := m["$ref"].(string)
	if !ok {
		return Reference{}, false
	}
	attr, ok := m["attr"].(string)
	if !ok {
		return Reference{}, false
	}
	return Reference{Address: addr, Attribute: attr}, true
}

// References walks a property tree and collects every Reference in it.
func References(v any) []Reference {
	var refs []Reference
	walkValues(v, func(val any) {
		if ref, ok := val.(Reference); ok {
			refs = append(refs, ref)
		}
	})
	return refs
}

func walkValues(v any, fn func(any)) {
	fn(v)
	switch val := v.(type) {
	case map[string]any:
		for _, item := range val {
			walkValues(item, fn)
		}
	case []any:
		for _, item := range val {
			walkValues(item, fn)
		}
	}
}

// DeepCopyProperties returns a deep copy of a property tree. Reference
// values are immutable and copied as-is.
func DeepCopyProperties(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyProperties(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}

// ValuesEqual compares two attribute values structurally. References
// compare by target, literals by their canonical JSON-ish rendering.
func ValuesEqual(a, b any) bool {
	ra, aIsRef := a.(Reference)
	rb, bIsRef := b.(Reference)
	if aIsRef || bIsRef {
		return aIsRef && bIsRef && ra == rb
	}
	return canonical(a) == canonical(b)
}

func canonical(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case float64:
		// JSON numbers decode as float64; render integers without a
		// fraction so 3 and 3.0 compare equal across round trips.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case Reference:
		return "ref:" + val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

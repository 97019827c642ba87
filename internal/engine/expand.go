package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/terralite-io/terralite/internal/ir"
)

// ExpandMultiplicity turns resources declared with count or forEach into
// concrete, individually addressed instances. Expansion runs before
// graph construction so the two stages stay independently testable.
//
// Ordinal (count) instances are identified by position: reordering the
// underlying inputs shifts which index holds which value and diffs
// accordingly. Keyed (forEach) instances are identified by key and are
// stable under reordering.
func ExpandMultiplicity(resources []*ir.Resource) []*ir.Resource {
	var expanded []*ir.Resource

	for _, res := range resources {
		switch {
		case res.Count > 0:
			for i := 0; i < res.Count; i++ {
				clone := res.Clone()
				clone.Count = 0
				clone.Index = ir.OrdinalIndex(i)
				clone.Properties = substituteAll(clone.Properties, map[string]string{
					"${count.index}": fmt.Sprintf("%d", i),
				})
				expanded = append(expanded, clone)
			}
		case len(res.ForEach) > 0:
			keys := make([]string, 0, len(res.ForEach))
			for key := range res.ForEach {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				clone := res.Clone()
				clone.ForEach = nil
				clone.Index = ir.KeyedIndex(key)
				clone.Properties = substituteAll(clone.Properties, map[string]string{
					"${each.key}":   key,
					"${each.value}": fmt.Sprintf("%v", res.ForEach[key]),
				})
				expanded = append(expanded, clone)
			}
		default:
			expanded = append(expanded, res)
		}
	}

	return expanded
}

// substituteAll rewrites repetition placeholders in literal strings.
// Reference values are left untouched; placeholder substitution is
// config templating, not reference resolution.
func substituteAll(props map[string]any, replacements map[string]string) map[string]any {
	if props == nil {
		return nil
	}
	result := make(map[string]any, len(props))
	for k, v := range props {
		result[k] = substituteValue(v, replacements)
	}
	return result
}

func substituteValue(v any, replacements map[string]string) any {
	switch val := v.(type) {
	case string:
		result := val
		for old, newVal := range replacements {
			result = strings.ReplaceAll(result, old, newVal)
		}
		return result
	case map[string]any:
		return substituteAll(val, replacements)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = substituteValue(item, replacements)
		}
		return result
	default:
		return v
	}
}

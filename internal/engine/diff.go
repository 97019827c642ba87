package engine

import (
	"github.com/terralite-io/terralite/internal/ir"
	"github.com/terralite-io/terralite/internal/provider"
)

// diffAttributes compares recorded inputs against desired properties
// under the provider's per-type policy table and classifies the result.
//
// Attributes in the ignore set are stripped from both sides before
// comparing, so externally drifted or unset ignored attributes never
// surface in a diff. Computed attributes never diff either; the
// external system owns them.
func diffAttributes(prior, desired map[string]any, schema *provider.ResourceTypeSchema, ignore []string) (map[string]*ir.PropertyDiff, ir.Action) {
	ignoreSet := make(map[string]bool, len(ignore))
	for _, attr := range ignore {
		ignoreSet[attr] = true
	}

	skip := func(k string) bool {
		return ignoreSet[k] || schema.Attribute(k).Computed
	}

	allKeys := make(map[string]bool, len(prior)+len(desired))
	for k := range prior {
		allKeys[k] = true
	}
	for k := range desired {
		allKeys[k] = true
	}

	diff := make(map[string]*ir.PropertyDiff)
	replace := false

	for k := range allKeys {
		if skip(k) {
			continue
		}
		priorVal, inPrior := prior[k]
		desiredVal, inDesired := desired[k]

		var d *ir.PropertyDiff
		switch {
		case !inPrior:
			d = &ir.PropertyDiff{After: desiredVal, Action: "create"}
		case !inDesired:
			d = &ir.PropertyDiff{Before: priorVal, Action: "delete"}
		case !ir.ValuesEqual(priorVal, desiredVal):
			d = &ir.PropertyDiff{Before: priorVal, After: desiredVal, Action: "update"}
		default:
			continue
		}

		attrSchema := schema.Attribute(k)
		d.Sensitive = attrSchema.Sensitive
		d.ForcesReplacement = attrSchema.ForcesReplacement
		if d.ForcesReplacement {
			replace = true
		}
		diff[k] = d
	}

	if len(diff) == 0 {
		return nil, ir.ActionNoOp
	}
	if replace {
		return diff, ir.ActionReplace
	}
	return diff, ir.ActionUpdate
}

// createDiff renders every desired attribute as a creation entry.
func createDiff(desired map[string]any, schema *provider.ResourceTypeSchema) map[string]*ir.PropertyDiff {
	diff := make(map[string]*ir.PropertyDiff, len(desired))
	for k, v := range desired {
		diff[k] = &ir.PropertyDiff{
			After:     v,
			Action:    "create",
			Sensitive: schema.Attribute(k).Sensitive,
		}
	}
	return diff
}

// deleteDiff renders every recorded attribute as a deletion entry.
func deleteDiff(prior map[string]any, schema *provider.ResourceTypeSchema) map[string]*ir.PropertyDiff {
	diff := make(map[string]*ir.PropertyDiff, len(prior))
	for k, v := range prior {
		diff[k] = &ir.PropertyDiff{
			Before:    v,
			Action:    "delete",
			Sensitive: schema.Attribute(k).Sensitive,
		}
	}
	return diff
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terralite-io/terralite/internal/ir"
)

func TestExpandMultiplicity_Count(t *testing.T) {
	expanded := ExpandMultiplicity([]*ir.Resource{
		{
			Type: "mem.node", Name: "workers", Provider: "mem",
			Count: 3,
			Properties: map[string]any{
				"hostname": "worker-${count.index}",
			},
		},
	})

	require.Len(t, expanded, 3)
	assert.Equal(t, "mem.node.workers[0]", expanded[0].Address().String())
	assert.Equal(t, "mem.node.workers[2]", expanded[2].Address().String())
	assert.Equal(t, "worker-0", expanded[0].Properties["hostname"])
	assert.Equal(t, "worker-2", expanded[2].Properties["hostname"])

	for _, res := range expanded {
		assert.Zero(t, res.Count, "expanded instances carry no repetition meta-argument")
	}
}

func TestExpandMultiplicity_ForEachSortedKeys(t *testing.T) {
	expanded := ExpandMultiplicity([]*ir.Resource{
		{
			Type: "mem.bucket", Name: "assets", Provider: "mem",
			ForEach: map[string]any{
				"logs": "log-bucket",
				"web":  "web-bucket",
			},
			Properties: map[string]any{
				"name":  "bucket-${each.key}",
				"value": "${each.value}",
			},
		},
	})

	require.Len(t, expanded, 2)
	// Keys expand in sorted order for determinism.
	assert.Equal(t, `mem.bucket.assets["logs"]`, expanded[0].Address().String())
	assert.Equal(t, `mem.bucket.assets["web"]`, expanded[1].Address().String())
	assert.Equal(t, "bucket-logs", expanded[0].Properties["name"])
	assert.Equal(t, "log-bucket", expanded[0].Properties["value"])
	assert.Equal(t, "web-bucket", expanded[1].Properties["value"])
}

func TestExpandMultiplicity_KeyedAddressesStableUnderNewKeys(t *testing.T) {
	base := func(keys map[string]any) []string {
		expanded := ExpandMultiplicity([]*ir.Resource{
			{Type: "mem.bucket", Name: "assets", Provider: "mem", ForEach: keys},
		})
		addrs := make([]string, len(expanded))
		for i, res := range expanded {
			addrs[i] = res.Address().String()
		}
		return addrs
	}

	before := base(map[string]any{"web": 1, "logs": 2})
	after := base(map[string]any{"web": 1, "logs": 2, "cache": 3})

	// Existing keys keep their addresses when a new key is added.
	for _, addr := range before {
		assert.Contains(t, after, addr)
	}
}

func TestExpandMultiplicity_SubstitutionLeavesReferencesAlone(t *testing.T) {
	ref := ir.Reference{Address: "mem.vpc.main", Attribute: "id"}
	expanded := ExpandMultiplicity([]*ir.Resource{
		{
			Type: "mem.node", Name: "workers", Provider: "mem",
			Count: 1,
			Properties: map[string]any{
				"vpcId": ref,
				"nested": map[string]any{
					"label": "n-${count.index}",
				},
			},
		},
	})

	require.Len(t, expanded, 1)
	assert.Equal(t, ref, expanded[0].Properties["vpcId"])
	nested := expanded[0].Properties["nested"].(map[string]any)
	assert.Equal(t, "n-0", nested["label"])
}

func TestExpandMultiplicity_SingletonPassesThrough(t *testing.T) {
	res := &ir.Resource{Type: "mem.bucket", Name: "one", Provider: "mem"}
	expanded := ExpandMultiplicity([]*ir.Resource{res})

	require.Len(t, expanded, 1)
	assert.Nil(t, expanded[0].Index)
	assert.Equal(t, "mem.bucket.one", expanded[0].Address().String())
}

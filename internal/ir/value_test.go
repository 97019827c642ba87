package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReference_JSONRoundTrip(t *testing.T) {
	props := map[string]any{
		"name":  "web",
		"vpcId": Reference{Address: "mem.vpc.main", Attribute: "id"},
		"nested": map[string]any{
			"subnet": Reference{Address: "mem.subnet.a", Attribute: "cidr"},
		},
	}

	raw, err := json.Marshal(props)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	decoded = DecodeProperties(decoded)

	assert.Equal(t, Reference{Address: "mem.vpc.main", Attribute: "id"}, decoded["vpcId"])
	nested := decoded["nested"].(map[string]any)
	assert.Equal(t, Reference{Address: "mem.subnet.a", Attribute: "cidr"}, nested["subnet"])
	assert.Equal(t, "web", decoded["name"])
}

func TestDecodeProperties_PlainMapNotAReference(t *testing.T) {
	decoded := DecodeProperties(map[string]any{
		// Right shape but wrong keys: must stay a plain map.
		"tags": map[string]any{"env": "prod", "team": "core"},
		// Extra key disqualifies the reference shape.
		"other": map[string]any{"$ref": "a.b", "attr": "id", "x": 1},
	})

	_, isRef := decoded["tags"].(Reference)
	assert.False(t, isRef)
	_, isRef = decoded["other"].(Reference)
	assert.False(t, isRef)
}

func TestDecodeProperties_Nil(t *testing.T) {
	assert.Nil(t, DecodeProperties(nil))
}

func TestReferences_CollectsFromNestedValues(t *testing.T) {
	refs := References(map[string]any{
		"a": Reference{Address: "t.x", Attribute: "id"},
		"list": []any{
			Reference{Address: "t.y", Attribute: "id"},
			"literal",
		},
	})

	assert.Len(t, refs, 2)
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual("a", "a"))
	assert.False(t, ValuesEqual("a", "b"))
	assert.True(t, ValuesEqual(nil, nil))

	// JSON round trips decode numbers as float64.
	assert.True(t, ValuesEqual(3, float64(3)))
	assert.False(t, ValuesEqual(3, 3.5))

	refA := Reference{Address: "t.x", Attribute: "id"}
	refB := Reference{Address: "t.y", Attribute: "id"}
	assert.True(t, ValuesEqual(refA, refA))
	assert.False(t, ValuesEqual(refA, refB))
	assert.False(t, ValuesEqual(refA, "t.x.id"))

	assert.True(t, ValuesEqual([]any{"a", float64(1)}, []any{"a", 1}))
}

func TestDeepCopyProperties_Isolated(t *testing.T) {
	orig := map[string]any{
		"nested": map[string]any{"k": "v"},
		"list":   []any{"a"},
	}
	clone := DeepCopyProperties(orig)

	clone["nested"].(map[string]any)["k"] = "changed"
	clone["list"].([]any)[0] = "changed"

	assert.Equal(t, "v", orig["nested"].(map[string]any)["k"])
	assert.Equal(t, "a", orig["list"].([]any)[0])
}

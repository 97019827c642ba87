package ir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanHasChanges(t *testing.T) {
	plan := &Plan{Summary: &PlanSummary{NoOp: 3}}
	assert.False(t, plan.HasChanges())

	plan.Summary.Update = 1
	assert.True(t, plan.HasChanges())
}

func TestPlanFileRoundTrip(t *testing.T) {
	plan := &Plan{
		Metadata: &PlanMetadata{Timestamp: "2026-08-24T00:00:00Z", StateSerial: 4, StateLineage: "abc"},
		Changes: []*ResourceChange{
			{
				Address: `mem.bucket.assets["web"]`,
				Action:  ActionCreate,
				Desired: &Resource{
					Type: "mem.bucket", Name: "assets", Provider: "mem",
					Properties: map[string]any{
						"vpcId": Reference{Address: "mem.vpc.main", Attribute: "id"},
					},
				},
				Diff: map[string]*PropertyDiff{
					"vpcId": {After: Reference{Address: "mem.vpc.main", Attribute: "id"}, Action: "create"},
				},
				Depends: []string{"mem.vpc.main"},
			},
		},
		Summary: &PlanSummary{Create: 1},
	}

	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, plan.WriteFile(path))

	loaded, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, loaded.Changes, 1)

	change := loaded.Changes[0]
	assert.Equal(t, ActionCreate, change.Action)
	assert.Equal(t, 4, loaded.Metadata.StateSerial)
	assert.Equal(t, []string{"mem.vpc.main"}, change.Depends)

	// References inside desired properties survive the round trip as
	// tagged values, and the expansion index is restored from the address.
	ref, ok := change.Desired.Properties["vpcId"].(Reference)
	require.True(t, ok)
	assert.Equal(t, "mem.vpc.main", ref.Address)
	require.NotNil(t, change.Desired.Index)
	assert.Equal(t, "web", change.Desired.Index.Key)
}

func TestStateFindUpsertRemove(t *testing.T) {
	s := NewState()
	assert.Nil(t, s.Find("mem.bucket.a"))

	s.Upsert(&ResourceRecord{Address: "mem.bucket.a", ExternalID: "x-1"})
	s.Upsert(&ResourceRecord{Address: "mem.bucket.b", ExternalID: "x-2"})
	require.NotNil(t, s.Find("mem.bucket.a"))

	s.Upsert(&ResourceRecord{Address: "mem.bucket.a", ExternalID: "x-9"})
	assert.Len(t, s.Resources, 2)
	assert.Equal(t, "x-9", s.Find("mem.bucket.a").ExternalID)

	assert.True(t, s.Remove("mem.bucket.a"))
	assert.False(t, s.Remove("mem.bucket.a"))
	assert.Len(t, s.Resources, 1)
}

func TestStateClone_Isolated(t *testing.T) {
	s := NewState()
	s.Upsert(&ResourceRecord{
		Address: "mem.bucket.a",
		Inputs:  map[string]any{"name": "orig"},
	})

	clone := s.Clone()
	clone.Find("mem.bucket.a").Inputs["name"] = "changed"

	assert.Equal(t, "orig", s.Find("mem.bucket.a").Inputs["name"])
}

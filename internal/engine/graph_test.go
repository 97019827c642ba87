package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terralite-io/terralite/internal/ir"
)

func indexOf(s []string, v string) int {
	for i, item := range s {
		if item == v {
			return i
		}
	}
	return -1
}

func TestBuildDAG_NoDependencies(t *testing.T) {
	resources := []*ir.Resource{
		{Type: "null_resource", Name: "a", Provider: "null"},
		{Type: "null_resource", Name: "b", Provider: "null"},
		{Type: "null_resource", Name: "c", Provider: "null"},
	}

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	order := dag.CreationOrder()
	assert.Len(t, order, 3)
}

func TestBuildDAG_ExplicitDependsOn(t *testing.T) {
	resources := []*ir.Resource{
		{Type: "null_resource", Name: "a", Provider: "null", DependsOn: []string{"null_resource.b"}},
		{Type: "null_resource", Name: "b", Provider: "null"},
		{Type: "null_resource", Name: "c", Provider: "null", DependsOn: []string{"null_resource.a"}},
	}

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	order := dag.CreationOrder()
	require.Len(t, order, 3)

	posB := indexOf(order, "null_resource.b")
	posA := indexOf(order, "null_resource.a")
	posC := indexOf(order, "null_resource.c")

	assert.Less(t, posB, posA, "b should come before a")
	assert.Less(t, posA, posC, "a should come before c")
}

func TestBuildDAG_ImplicitReference(t *testing.T) {
	resources := []*ir.Resource{
		{
			Type: "mem.subnet", Name: "a", Provider: "mem",
			Properties: map[string]any{
				"vpcId": ir.Reference{Address: "mem.vpc.main", Attribute: "id"},
			},
		},
		{Type: "mem.vpc", Name: "main", Provider: "mem"},
	}

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	order := dag.CreationOrder()
	assert.Less(t, indexOf(order, "mem.vpc.main"), indexOf(order, "mem.subnet.a"))
	assert.Equal(t, []string{"mem.vpc.main"}, dag.Dependencies("mem.subnet.a"))
	assert.Equal(t, []string{"mem.subnet.a"}, dag.Dependents("mem.vpc.main"))
}

func TestBuildDAG_BaseReferenceFansOut(t *testing.T) {
	resources := ExpandMultiplicity([]*ir.Resource{
		{Type: "mem.node", Name: "workers", Provider: "mem", Count: 3},
		{
			Type: "mem.lb", Name: "front", Provider: "mem",
			// Reference to the unexpanded base fans out to every instance.
			DependsOn: []string{"mem.node.workers"},
		},
	})

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	deps := dag.Dependencies("mem.lb.front")
	assert.ElementsMatch(t, []string{
		"mem.node.workers[0]",
		"mem.node.workers[1]",
		"mem.node.workers[2]",
	}, deps)
}

func TestBuildDAG_IndexedReferenceBindsOneInstance(t *testing.T) {
	resources := ExpandMultiplicity([]*ir.Resource{
		{Type: "mem.node", Name: "workers", Provider: "mem", Count: 2},
		{
			Type: "mem.lb", Name: "front", Provider: "mem",
			Properties: map[string]any{
				"target": ir.Reference{Address: "mem.node.workers[1]", Attribute: "id"},
			},
		},
	})

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	assert.Equal(t, []string{"mem.node.workers[1]"}, dag.Dependencies("mem.lb.front"))
}

func TestBuildDAG_UnresolvedReference(t *testing.T) {
	resources := []*ir.Resource{
		{
			Type: "mem.subnet", Name: "a", Provider: "mem",
			Properties: map[string]any{
				"vpcId": ir.Reference{Address: "mem.vpc.missing", Attribute: "id"},
			},
		},
	}

	_, err := BuildDAG(resources)
	require.Error(t, err)

	var unresolved *UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "mem.subnet.a", unresolved.Address)
	assert.Equal(t, "mem.vpc.missing", unresolved.Target)
}

func TestBuildDAG_CycleNamesAddressSequence(t *testing.T) {
	resources := []*ir.Resource{
		{Type: "null_resource", Name: "a", Provider: "null", DependsOn: []string{"null_resource.b"}},
		{Type: "null_resource", Name: "b", Provider: "null", DependsOn: []string{"null_resource.c"}},
		{Type: "null_resource", Name: "c", Provider: "null", DependsOn: []string{"null_resource.a"}},
	}

	_, err := BuildDAG(resources)
	require.Error(t, err)

	var cyclic *CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)

	// The cycle closes on itself and names every member.
	require.NotEmpty(t, cyclic.Cycle)
	assert.Equal(t, cyclic.Cycle[0], cyclic.Cycle[len(cyclic.Cycle)-1])
	assert.Len(t, cyclic.Cycle, 4)
	assert.Contains(t, cyclic.Cycle, "null_resource.a")
	assert.Contains(t, cyclic.Cycle, "null_resource.b")
	assert.Contains(t, cyclic.Cycle, "null_resource.c")
}

func TestBuildDAG_SelfReferenceIgnored(t *testing.T) {
	resources := []*ir.Resource{
		{Type: "null_resource", Name: "a", Provider: "null", DependsOn: []string{"null_resource.a"}},
	}

	dag, err := BuildDAG(resources)
	require.NoError(t, err)
	assert.Empty(t, dag.Dependencies("null_resource.a"))
}

func TestDestructionOrder_ReversesCreationOrder(t *testing.T) {
	resources := []*ir.Resource{
		{Type: "null_resource", Name: "a", Provider: "null"},
		{Type: "null_resource", Name: "b", Provider: "null", DependsOn: []string{"null_resource.a"}},
	}

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	destruction := dag.DestructionOrder()
	assert.Less(t, indexOf(destruction, "null_resource.b"), indexOf(destruction, "null_resource.a"))
}

func TestBuildDAGFromState_OrdersByRecordedDependencies(t *testing.T) {
	records := []*ir.ResourceRecord{
		{Address: "mem.subnet.a", Dependencies: []string{"mem.vpc.main"}},
		{Address: "mem.vpc.main"},
	}

	dag, err := BuildDAGFromState(records)
	require.NoError(t, err)

	destruction := dag.DestructionOrder()
	assert.Less(t, indexOf(destruction, "mem.subnet.a"), indexOf(destruction, "mem.vpc.main"))
}

func TestTransitiveDependents(t *testing.T) {
	resources := []*ir.Resource{
		{Type: "null_resource", Name: "a", Provider: "null"},
		{Type: "null_resource", Name: "b", Provider: "null", DependsOn: []string{"null_resource.a"}},
		{Type: "null_resource", Name: "c", Provider: "null", DependsOn: []string{"null_resource.b"}},
		{Type: "null_resource", Name: "d", Provider: "null"},
	}

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	assert.Equal(t, []string{"null_resource.b", "null_resource.c"}, dag.TransitiveDependents("null_resource.a"))
	assert.Empty(t, dag.TransitiveDependents("null_resource.d"))
}

func TestDOT_ContainsNodesAndEdges(t *testing.T) {
	resources := []*ir.Resource{
		{Type: "null_resource", Name: "a", Provider: "null"},
		{Type: "null_resource", Name: "b", Provider: "null", DependsOn: []string{"null_resource.a"}},
	}

	dag, err := BuildDAG(resources)
	require.NoError(t, err)

	dot := dag.DOT()
	assert.Contains(t, dot, "digraph resources")
	assert.Contains(t, dot, `"null_resource.b" -> "null_resource.a";`)
}

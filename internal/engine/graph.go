package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/terralite-io/terralite/internal/ir"
)

// DAG is the dependency graph over expanded resource addresses. It is
// immutable once built; the executor only reads it.
type DAG struct {
	nodes    map[string]*dagNode
	order    []string // topological order (creation order)
	revOrder []string // reverse topological order (destruction order)
}

type dagNode struct {
	addr     string
	edges    []string // addresses this node depends on
	revEdges []string // addresses that depend on this node
}

// BuildDAG constructs the graph from expanded resources, deriving
// implicit edges from ir.Reference values and explicit edges from
// DependsOn. A reference to an unexpanded multiplicity base fans out to
// every instance; an indexed reference binds to exactly one.
func BuildDAG(resources []*ir.Resource) (*DAG, error) {
	dag := &DAG{nodes: make(map[string]*dagNode)}

	// Instances grouped by base address, for fan-out resolution.
	byBase := make(map[string][]string)
	for _, res := range resources {
		addr := res.Address().String()
		dag.nodes[addr] = &dagNode{addr: addr}
		base := res.Address().Base().String()
		byBase[base] = append(byBase[base], addr)
	}

	resolve := func(from, target string) ([]string, error) {
		if _, ok := dag.nodes[target]; ok {
			return []string{target}, nil
		}
		if instances, ok := byBase[target]; ok {
			return instances, nil
		}
		return nil, &UnresolvedReferenceError{Address: from, Target: target}
	}

	for _, res := range resources {
		addr := res.Address().String()
		node := dag.nodes[addr]

		for _, dep := range res.DependsOn {
			targets, err := resolve(addr, dep)
			if err != nil {
				return nil, err
			}
			node.edges = append(node.edges, targets...)
		}

		for _, ref := range ir.References(res.Properties) {
			targets, err := resolve(addr, ref.Address)
			if err != nil {
				return nil, err
			}
			node.edges = append(node.edges, targets...)
		}

		node.edges = dedupe(node.edges, addr)
	}

	// Build reverse edges
	for addr, node := range dag.nodes {
		for _, dep := range node.edges {
			dag.nodes[dep].revEdges = append(dag.nodes[dep].revEdges, addr)
		}
	}

	order, err := dag.topoSort()
	if err != nil {
		return nil, err
	}
	dag.order = order

	dag.revOrder = make([]string, len(order))
	for i, addr := range order {
		dag.revOrder[len(order)-1-i] = addr
	}

	return dag, nil
}

// BuildDAGFromState constructs a graph from recorded dependencies, used
// for destroy ordering of resources no longer in the configuration.
func BuildDAGFromState(records []*ir.ResourceRecord) (*DAG, error) {
	dag := &DAG{nodes: make(map[string]*dagNode)}

	for _, rec := range records {
		dag.nodes[rec.Address] = &dagNode{addr: rec.Address}
	}
	for _, rec := range records {
		node := dag.nodes[rec.Address]
		for _, dep := range rec.Dependencies {
			if _, ok := dag.nodes[dep]; ok {
				node.edges = append(node.edges, dep)
			}
		}
		node.edges = dedupe(node.edges, rec.Address)
	}

	for addr, node := range dag.nodes {
		for _, dep := range node.edges {
			dag.nodes[dep].revEdges = append(dag.nodes[dep].revEdges, addr)
		}
	}

	order, err := dag.topoSort()
	if err != nil {
		return nil, err
	}
	dag.order = order

	dag.revOrder = make([]string, len(order))
	for i, addr := range order {
		dag.revOrder[len(order)-1-i] = addr
	}

	return dag, nil
}

// CreationOrder returns addresses in dependency-respecting creation order.
func (d *DAG) CreationOrder() []string {
	return d.order
}

// DestructionOrder returns addresses in reverse dependency order.
func (d *DAG) DestructionOrder() []string {
	return d.revOrder
}

// Dependencies returns the addresses a node depends on.
func (d *DAG) Dependencies(addr string) []string {
	if node, ok := d.nodes[addr]; ok {
		return node.edges
	}
	return nil
}

// Dependents returns the addresses depending on a node.
func (d *DAG) Dependents(addr string) []string {
	if node, ok := d.nodes[addr]; ok {
		return node.revEdges
	}
	return nil
}

// TransitiveDependents returns every address reachable by following
// reverse edges from addr, excluding addr itself.
func (d *DAG) TransitiveDependents(addr string) []string {
	seen := make(map[string]bool)
	var visit func(string)
	visit = func(a string) {
		for _, dep := range d.Dependents(a) {
			if !seen[dep] {
				seen[dep] = true
				visit(dep)
			}
		}
	}
	visit(addr)
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// topoSort runs Kahn's algorithm. On failure it extracts the concrete
// cycle with a DFS so the error can name the address sequence.
func (d *DAG) topoSort() ([]string, error) {
	inDegree := make(map[string]int, len(d.nodes))
	for addr, node := range d.nodes {
		inDegree[addr] = len(node.edges)
	}

	// Deterministic ordering for equal-rank nodes.
	var queue []string
	for addr, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, addr)
		}
	}
	sort.Strings(queue)

	var sorted []string
	for len(queue) > 0 {
		addr := queue[0]
		queue = queue[1:]
		sorted = append(sorted, addr)

		var ready []string
		for _, dependent := range d.nodes[addr].revEdges {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(sorted) != len(d.nodes) {
		return nil, &CyclicDependencyError{Cycle: d.findCycle()}
	}

	return sorted, nil
}

// findCycle locates one cycle via DFS with a recursion stack.
func (d *DAG) findCycle() []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	stateOf := make(map[string]int, len(d.nodes))
	var stack []string
	var cycle []string

	var visit func(string) bool
	visit = func(addr string) bool {
		stateOf[addr] = inStack
		stack = append(stack, addr)
		for _, dep := range d.nodes[addr].edges {
			switch stateOf[dep] {
			case inStack:
				// Slice the stack from the first occurrence of dep.
				for i, a := range stack {
					if a == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		stateOf[addr] = done
		return false
	}

	addrs := make([]string, 0, len(d.nodes))
	for addr := range d.nodes {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		if stateOf[addr] == unvisited && visit(addr) {
			break
		}
	}
	return cycle
}

// DOT renders the graph in Graphviz format for the graph command.
func (d *DAG) DOT() string {
	var b strings.Builder
	b.WriteString("digraph resources {\n")
	b.WriteString("  rankdir = \"TB\";\n")

	addrs := make([]string, 0, len(d.nodes))
	for addr := range d.nodes {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		fmt.Fprintf(&b, "  %q;\n", addr)
		deps := append([]string(nil), d.nodes[addr].edges...)
		sort.Strings(deps)
		for _, dep := range deps {
			fmt.Fprintf(&b, "  %q -> %q;\n", addr, dep)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func dedupe(addrs []string, self string) []string {
	seen := make(map[string]bool, len(addrs))
	var out []string
	for _, a := range addrs {
		if a == self || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

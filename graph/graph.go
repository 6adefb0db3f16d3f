package graph

import (
	"sort"
)

// Graph is the immutable, validated result of Builder.Build. It is safe for
// concurrent use: runner.Runner obtains a Plan for it on each run without
// mutating it.
type Graph struct {
	nodes map[string]*NodeDefinition
	edges []Edge
	hash  uint64
}

func build(b *Builder) (*Graph, error) {
	if err := validate(b.nodes, b.order, b.edges); err != nil {
		return nil, err
	}
	g := &Graph{
		nodes: b.nodes,
		edges: append([]Edge(nil), b.edges...),
	}
	g.hash = structuralHash(g.nodes, g.edges)
	return g, nil
}

// Node returns the definition for id, or nil if no such node exists.
func (g *Graph) Node(id string) *NodeDefinition {
	return g.nodes[id]
}

// NodeIDs returns every node id in the graph, sorted for deterministic
// iteration.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edges returns the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// InEdges returns edges arriving at id, in insertion order, which for a Join
// target determines input ordering.
func (g *Graph) InEdges(id string) []Edge {
	var in []Edge
	for _, e := range g.edges {
		if e.To == id {
			in = append(in, e)
		}
	}
	return in
}

// OutEdges returns edges leaving id, in insertion order.
func (g *Graph) OutEdges(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Hash returns the structural hash of this graph: two graphs built with the
// same nodes and edges, added in any order, hash identically. This is the
// cache key component the runner pairs with a definition-type tag to reuse
// compiled execution plans across runs (invariant 1).
func (g *Graph) Hash() uint64 {
	return g.hash
}

// TopologicalOrder returns node ids in a valid topological order, breaking
// ties lexicographically so that two structurally identical graphs always
// schedule nodes in the same order regardless of insertion order.
func (g *Graph) TopologicalOrder() []string {
	inDegree := make(map[string]int, len(g.nodes))
	adjacency := make(map[string][]string, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, e := range g.edges {
		inDegree[e.To]++
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		next := append([]string(nil), adjacency[id]...)
		sort.Strings(next)
		for _, n := range next {
			inDegree[n]--
			if inDegree[n] == 0 {
				ready = append(ready, n)
			}
		}
	}
	return order
}

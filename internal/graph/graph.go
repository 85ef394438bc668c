// Package graph builds and validates the causal dependency graph handed to
// the external statistical engine. Validation runs locally so a malformed
// graph fails instantly without consuming an engine call.
package graph

import (
	"sort"

	"causalbridge/api/schemas"
)

// CausalGraph is an immutable DAG over string node identifiers. Instances
// are only produced by Builder.Build, which guarantees acyclicity, so
// downstream code never re-checks structure.
type CausalGraph struct {
	nodes    []string
	index    map[string]int
	children [][]int
	parents  [][]int
	edges    [][2]int
}

// NodeCount returns the number of nodes.
func (g *CausalGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *CausalGraph) EdgeCount() int { return len(g.edges) }

// Nodes returns the node identifiers in their original insertion order.
func (g *CausalGraph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// HasNode reports whether id is a node of the graph.
func (g *CausalGraph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Parents returns the direct causal parents of id, or nil if id is unknown.
func (g *CausalGraph) Parents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.resolve(g.parents[i])
}

// Children returns the direct causal children of id, or nil if id is unknown.
func (g *CausalGraph) Children(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.resolve(g.children[i])
}

// Roots returns the nodes with no causal parents, in insertion order.
func (g *CausalGraph) Roots() []string {
	var roots []string
	for i, name := range g.nodes {
		if len(g.parents[i]) == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

// Descendants returns every node causally downstream of id, sorted, and
// reports whether id exists. The target itself is excluded.
func (g *CausalGraph) Descendants(id string) ([]string, bool) {
	start, ok := g.index[id]
	if !ok {
		return nil, false
	}
	seen := make([]bool, len(g.nodes))
	stack := append([]int(nil), g.children[start]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.children[n]...)
	}
	var out []string
	for i, hit := range seen {
		if hit {
			out = append(out, g.nodes[i])
		}
	}
	sort.Strings(out)
	return out, true
}

// Payload converts the graph to its wire representation.
func (g *CausalGraph) Payload() schemas.GraphPayload {
	p := schemas.GraphPayload{
		Nodes: g.Nodes(),
		Edges: make([][2]string, len(g.edges)),
	}
	for i, e := range g.edges {
		p.Edges[i] = [2]string{g.nodes[e[0]], g.nodes[e[1]]}
	}
	return p
}

func (g *CausalGraph) resolve(idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = g.nodes[n]
	}
	return out
}

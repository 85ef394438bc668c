package graph

import (
	"sort"

	"go.uber.org/zap"
)

// DefaultMaxNodes caps graph size before a build is refused. The limit guards
// the engine's fitting time, which grows super-linearly with node count.
const DefaultMaxNodes = 10000

// Builder validates node/edge lists and produces immutable CausalGraphs.
type Builder struct {
	maxNodes int
	log      *zap.Logger
}

// NewBuilder creates a Builder. A maxNodes of zero or below selects
// DefaultMaxNodes.
func NewBuilder(maxNodes int, logger *zap.Logger) *Builder {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		maxNodes: maxNodes,
		log:      logger.Named("graphbuilder"),
	}
}

// Build validates that nodes are unique, every edge endpoint is a known node,
// and the edge relation is acyclic. On success it returns an immutable graph.
// An empty node list returns ErrEmptyGraph, which callers treat as a valid
// empty result rather than a hard failure.
func (b *Builder) Build(nodes []string, edges [][2]string) (*CausalGraph, error) {
	if len(nodes) == 0 {
		b.log.Warn("Refusing to build an empty causal graph")
		return nil, ErrEmptyGraph
	}
	if len(nodes) > b.maxNodes {
		return nil, &TooLargeError{NodeCount: len(nodes), Limit: b.maxNodes}
	}

	g := &CausalGraph{
		nodes:    append([]string(nil), nodes...),
		index:    make(map[string]int, len(nodes)),
		children: make([][]int, len(nodes)),
		parents:  make([][]int, len(nodes)),
	}
	for i, name := range g.nodes {
		if _, dup := g.index[name]; dup {
			return nil, &DuplicateNodeError{Node: name}
		}
		g.index[name] = i
	}

	seen := make(map[[2]int]struct{}, len(edges))
	for _, e := range edges {
		src, ok := g.index[e[0]]
		if !ok {
			return nil, &EndpointError{Source: e[0], Target: e[1], Node: e[0]}
		}
		tgt, ok := g.index[e[1]]
		if !ok {
			return nil, &EndpointError{Source: e[0], Target: e[1], Node: e[1]}
		}
		key := [2]int{src, tgt}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		g.edges = append(g.edges, key)
		g.children[src] = append(g.children[src], tgt)
		g.parents[tgt] = append(g.parents[tgt], src)
	}

	// Deterministic adjacency order regardless of input edge order.
	for i := range g.children {
		sort.Ints(g.children[i])
		sort.Ints(g.parents[i])
	}

	if cycle := findCycle(g); cycle != nil {
		return nil, &CycleError{Cycle: cycle}
	}

	b.log.Debug("Causal graph built",
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
	)
	return g, nil
}

// findCycle proves acyclicity with Kahn's algorithm; when the topological
// order is incomplete, a DFS over the canonical index order extracts one
// stable cycle witness for the error message.
func findCycle(g *CausalGraph) []string {
	indeg := make([]int, len(g.nodes))
	for i := range g.parents {
		indeg[i] = len(g.parents[i])
	}
	queue := make([]int, 0, len(indeg))
	for i := range indeg {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, m := range g.children[n] {
			indeg[m]--
			if indeg[m] == 0 {
				queue = append(queue, m)
			}
		}
	}
	if visited == len(g.nodes) {
		return nil
	}
	return cycleWitness(g)
}

func cycleWitness(g *CausalGraph) []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.nodes))
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.children[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v closes the cycle v ... u -> v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}
	for i := range g.nodes {
		if color[i] == white && dfs(i) {
			break
		}
	}
	if len(cycle) == 0 {
		return nil
	}
	// The DFS records the path tail-first.
	out := make([]string, len(cycle))
	for i, n := range cycle {
		out[len(cycle)-1-i] = g.nodes[n]
	}
	return out
}

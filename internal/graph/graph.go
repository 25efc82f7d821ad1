// Package graph provides the in-memory adjacency structure behind the lineage
// graph: reachability checks for cycle prevention and bounded breadth-first
// traversal for impact analysis. Nodes are dataset IDs; the package knows
// nothing about storage.
package graph

// Graph is a directed graph over string node IDs with forward and reverse
// adjacency. It holds committed edges only; callers run the cycle pre-check
// against it before committing a candidate edge.
type Graph struct {
	forward map[string][]string // upstream -> downstreams
	reverse map[string][]string // downstream -> upstreams
	edges   int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		forward: make(map[string][]string),
		reverse: make(map[string][]string),
	}
}

// AddEdge records a directed edge from upstream to downstream.
// Duplicate ordered pairs are ignored.
func (g *Graph) AddEdge(upstream, downstream string) {
	for _, d := range g.forward[upstream] {
		if d == downstream {
			return
		}
	}
	g.forward[upstream] = append(g.forward[upstream], downstream)
	g.reverse[downstream] = append(g.reverse[downstream], upstream)
	g.edges++
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Reachable reports whether a directed path exists from src to dst.
// Implemented as an iterative breadth-first search over forward edges so
// deep graphs cannot exhaust the stack.
func (g *Graph) Reachable(src, dst string) bool {
	if src == dst {
		return true
	}
	visited := map[string]bool{src: true}
	frontier := []string{src}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, next := range g.forward[current] {
			if next == dst {
				return true
			}
			if !visited[next] {
				visited[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return false
}

// Downstream returns every node reachable from id following forward edges, in
// breadth-first discovery order: direct dependents first, each node once at
// its shallowest depth. maxDepth bounds the walk in hops; 0 means unbounded.
func (g *Graph) Downstream(id string, maxDepth int) []string {
	return g.walk(id, maxDepth, g.forward)
}

// Upstream is Downstream over reversed edges: every node id transitively
// depends on, nearest dependencies first.
func (g *Graph) Upstream(id string, maxDepth int) []string {
	return g.walk(id, maxDepth, g.reverse)
}

// HasCycle reports whether the committed edge set contains a cycle. The write
// path prevents cycles from ever being committed, so this exists for
// verification (tests, consistency checks).
func (g *Graph) HasCycle() bool {
	// Kahn's algorithm: a DAG can be fully peeled in in-degree order.
	indegree := make(map[string]int)
	for up, downs := range g.forward {
		if _, ok := indegree[up]; !ok {
			indegree[up] = 0
		}
		for _, d := range downs {
			indegree[d]++
		}
	}

	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	peeled := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		peeled++
		for _, next := range g.forward[current] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	return peeled != len(indegree)
}

// walk runs a bounded BFS over the given adjacency map, excluding the start
// node from the result.
func (g *Graph) walk(start string, maxDepth int, adj map[string][]string) []string {
	type item struct {
		id    string
		depth int
	}

	visited := map[string]bool{start: true}
	frontier := []item{{id: start, depth: 0}}
	var order []string

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		if maxDepth > 0 && current.depth >= maxDepth {
			continue
		}
		for _, next := range adj[current.id] {
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			frontier = append(frontier, item{id: next, depth: current.depth + 1})
		}
	}

	return order
}

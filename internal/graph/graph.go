// Package graph implements the Association Graph (spec §4.4): a directed,
// labeled, weighted, typed-edge graph over record IDs, held in memory per
// owner and guarded by a single mutex, matching the spec §5 concurrency
// model for this component.
package graph

import (
	"sort"
	"sync"
)

// Edge is one directed, labeled, weighted, typed connection between two
// record nodes.
type Edge struct {
	To     string
	Label  string
	Type   string
	Weight float64
}

// Graph is the in-memory association graph for a single owner.
type Graph struct {
	mu    sync.Mutex
	nodes map[string]bool
	edges map[string][]Edge // from -> outgoing edges
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: map[string]bool{},
		edges: map[string][]Edge{},
	}
}

// GetOrCreateNode registers a record ID as a graph node if it isn't
// already present. Nodes with no edges are valid and simply isolated.
func (g *Graph) GetOrCreateNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[id] = true
}

// AddEdge adds a directed edge from -> to. Both endpoints are registered
// as nodes if not already present.
func (g *Graph) AddEdge(from, to, label, edgeType string, weight float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[from] = true
	g.nodes[to] = true
	g.edges[from] = append(g.edges[from], Edge{To: to, Label: label, Type: edgeType, Weight: weight})
}

// DeleteNode removes a node and every edge touching it, in either
// direction.
func (g *Graph) DeleteNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, id)
	delete(g.edges, id)
	for from, edges := range g.edges {
		kept := edges[:0]
		for _, e := range edges {
			if e.To != id {
				kept = append(kept, e)
			}
		}
		g.edges[from] = kept
	}
}

// DeleteEdge removes the first matching from->to edge with the given
// label, if present.
func (g *Graph) DeleteEdge(from, to, label string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	edges := g.edges[from]
	for i, e := range edges {
		if e.To == to && e.Label == label {
			g.edges[from] = append(edges[:i], edges[i+1:]...)
			return true
		}
	}
	return false
}

// Related returns the direct outgoing edges from a node, plus every edge
// pointing at it from elsewhere in the graph (both directions count as
// "related" per spec §4.4, without persisting a duplicate reverse row).
func (g *Graph) Related(id string) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Edge
	out = append(out, g.edges[id]...)
	for from, edges := range g.edges {
		if from == id {
			continue
		}
		for _, e := range edges {
			if e.To == id {
				out = append(out, Edge{To: from, Label: e.Label, Type: e.Type, Weight: e.Weight})
			}
		}
	}
	return out
}

// TraversalHit is one node discovered by Traverse, carrying the
// accumulated strength of the path that first reached it.
type TraversalHit struct {
	ID       string
	Strength float64
	Depth    int
}

// Traverse runs a breadth-first search from start, following outgoing
// edges up to maxDepth hops. A node's strength is the product of the
// edge weights along the path that discovered it first — first
// discovery wins, later (weaker or stronger) paths to an already-visited
// node are ignored, matching spec §4.4's traversal semantics.
func (g *Graph) Traverse(start string, maxDepth int) []TraversalHit {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.nodes[start] {
		return nil
	}

	type frontierItem struct {
		id       string
		strength float64
		depth    int
	}

	visited := map[string]bool{start: true}
	queue := []frontierItem{{id: start, strength: 1.0, depth: 0}}
	hits := []TraversalHit{{ID: start, Strength: 1.0, Depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > 0 {
			hits = append(hits, TraversalHit{ID: cur.id, Strength: cur.strength, Depth: cur.depth})
		}
		if cur.depth >= maxDepth {
			continue
		}
		for _, e := range g.edges[cur.id] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			queue = append(queue, frontierItem{id: e.To, strength: cur.strength * e.Weight, depth: cur.depth + 1})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Strength > hits[j].Strength })
	return hits
}

// StronglyConnected returns the IDs of nodes that have both an outgoing
// edge from id and an incoming edge to id — i.e. a mutual, two-way tie,
// not merely a direct neighbor in either direction alone.
func (g *Graph) StronglyConnected(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := map[string]bool{}
	for _, e := range g.edges[id] {
		out[e.To] = true
	}

	var result []string
	for from, edges := range g.edges {
		if from == id || !out[from] {
			continue
		}
		for _, e := range edges {
			if e.To == id {
				result = append(result, from)
				break
			}
		}
	}
	sort.Strings(result)
	return result
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

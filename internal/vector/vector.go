// Package vector implements the Vector Index (spec §4.3): similarity
// search over record embeddings, with both an exact brute-force search
// and an approximate HNSW-style layered proximity graph for larger
// owner indexes.
package vector

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/rpggio/synapse/internal/embedding"
)

// Match is one similarity search hit.
type Match struct {
	RecordID string
	Score    float64
}

// BruteForce is an exact cosine-similarity index, the ground truth the
// HNSW index approximates. The memory service's owner indexes use HNSW
// regardless of size.
type BruteForce struct {
	mu      sync.RWMutex
	vectors map[string]embedding.Vector
}

// NewBruteForce creates an empty brute-force index.
func NewBruteForce() *BruteForce {
	return &BruteForce{vectors: map[string]embedding.Vector{}}
}

// Upsert inserts or replaces a record's vector.
func (b *BruteForce) Upsert(recordID string, v embedding.Vector) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vectors[recordID] = v
}

// Delete removes a record's vector.
func (b *BruteForce) Delete(recordID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.vectors, recordID)
}

// Search returns the topK closest vectors by cosine similarity. An empty
// index returns an empty slice, not an error (spec §4.3 edge case).
func (b *BruteForce) Search(query embedding.Vector, topK int) []Match {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.vectors) == 0 || topK <= 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(b.vectors))
	for id, v := range b.vectors {
		matches = append(matches, Match{RecordID: id, Score: embedding.Cosine(query, v)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Len returns the number of indexed vectors.
func (b *BruteForce) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vectors)
}

// Stats summarizes index state for diagnostics and operator tooling.
type Stats struct {
	Nodes    int
	MaxLayer int
	Edges    int
}

// node is one entry in the HNSW-style layered proximity graph.
type node struct {
	id        string
	vector    embedding.Vector
	neighbors [][]string // neighbors[layer] = connected node IDs at that layer
}

// HNSW is an approximate nearest-neighbor index using a simplified
// hierarchical navigable small world graph: nodes are assigned to layers
// with geometrically decreasing probability, each layer keeps a bounded
// neighbor list, and search descends layer by layer doing greedy
// best-first traversal (spec §4.3's ANN requirement for larger indexes).
type HNSW struct {
	mu   sync.RWMutex
	m    int // max neighbors per layer (2*M on layer 0)
	efC  int // construction-time candidate list size
	efS  int // search-time candidate list size
	mult float64

	nodes    map[string]*node
	maxLayer int
	entry    string
	rng      *rand.Rand
}

// Config tunes the HNSW index's construction and search parameters.
type Config struct {
	M              int // neighbors per layer above 0; layer 0 keeps 2*M
	EfConstruction int
	EfSearch       int
	Seed           int64
}

// DefaultConfig returns reasonable defaults for a CI-scale owner index.
func DefaultConfig() Config {
	return Config{M: 16, EfConstruction: 100, EfSearch: 50, Seed: 1}
}

// New creates an empty HNSW index.
func New(cfg Config) *HNSW {
	if cfg.M <= 0 {
		cfg.M = 16
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = 100
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = 50
	}
	return &HNSW{
		m:    cfg.M,
		efC:  cfg.EfConstruction,
		efS:  cfg.EfSearch,
		mult: 1.0 / math.Log(float64(cfg.M)),
		nodes: map[string]*node{},
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (h *HNSW) randomLayer() int {
	r := h.rng.Float64()
	if r <= 0 {
		r = 1e-12
	}
	layer := int(math.Floor(-math.Log(r) * h.mult))
	return layer
}

func (h *HNSW) neighborCap(layer int) int {
	if layer == 0 {
		return 2 * h.m
	}
	return h.m
}

// Insert adds or replaces a vector in the index, wiring it into the
// layered graph via greedy descent from the entry point followed by a
// bounded best-first search at the insertion layers (spec §4.3).
func (h *HNSW) Insert(id string, v embedding.Vector) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.nodes[id]; ok {
		h.removeLocked(existing)
	}

	layer := h.randomLayer()
	n := &node{id: id, vector: v, neighbors: make([][]string, layer+1)}
	h.nodes[id] = n

	if h.entry == "" {
		h.entry = id
		h.maxLayer = layer
		return
	}

	ep := h.entry
	for l := h.maxLayer; l > layer; l-- {
		ep = h.greedyClosest(ep, v, l)
	}

	for l := min(layer, h.maxLayer); l >= 0; l-- {
		candidates := h.searchLayer(v, ep, h.efC, l)
		cap := h.neighborCap(l)
		selected := selectNeighbors(candidates, cap, v)
		n.neighbors[l] = selected
		for _, nb := range selected {
			h.connect(nb, id, l)
		}
		if len(candidates) > 0 {
			ep = candidates[0].id
		}
	}

	if layer > h.maxLayer {
		h.maxLayer = layer
		h.entry = id
	}
}

func (h *HNSW) connect(fromID, toID string, layer int) {
	from, ok := h.nodes[fromID]
	if !ok {
		return
	}
	for len(from.neighbors) <= layer {
		from.neighbors = append(from.neighbors, nil)
	}
	from.neighbors[layer] = append(from.neighbors[layer], toID)
	cap := h.neighborCap(layer)
	if len(from.neighbors[layer]) > cap {
		scored := make([]scoredID, 0, len(from.neighbors[layer]))
		for _, nid := range from.neighbors[layer] {
			if nb, ok := h.nodes[nid]; ok {
				scored = append(scored, scoredID{id: nid, score: embedding.Cosine(from.vector, nb.vector)})
			}
		}
		sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
		if len(scored) > cap {
			scored = scored[:cap]
		}
		ids := make([]string, len(scored))
		for i, s := range scored {
			ids[i] = s.id
		}
		from.neighbors[layer] = ids
	}
}

func (h *HNSW) removeLocked(n *node) {
	for l, neighbors := range n.neighbors {
		for _, nb := range neighbors {
			if other, ok := h.nodes[nb]; ok && l < len(other.neighbors) {
				other.neighbors[l] = removeID(other.neighbors[l], n.id)
			}
		}
	}
	delete(h.nodes, n.id)
	if h.entry == n.id {
		h.entry = ""
		h.maxLayer = 0
		for id := range h.nodes {
			h.entry = id
			break
		}
	}
}

// Delete removes a vector from the index.
func (h *HNSW) Delete(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n, ok := h.nodes[id]; ok {
		h.removeLocked(n)
	}
}

// Search returns the topK approximate nearest neighbors to query. An
// empty index returns an empty slice, never an error.
func (h *HNSW) Search(query embedding.Vector, topK int) []Match {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 || topK <= 0 {
		return []Match{}
	}

	ep := h.entry
	for l := h.maxLayer; l > 0; l-- {
		ep = h.greedyClosest(ep, query, l)
	}
	candidates := h.searchLayer(query, ep, max(h.efS, topK), 0)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{RecordID: c.id, Score: c.score}
	}
	return matches
}

// Stats reports index size for diagnostics.
func (h *HNSW) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	edges := 0
	for _, n := range h.nodes {
		for _, layer := range n.neighbors {
			edges += len(layer)
		}
	}
	return Stats{Nodes: len(h.nodes), MaxLayer: h.maxLayer, Edges: edges}
}

type scoredID struct {
	id    string
	score float64
}

// greedyClosest does a single-hop-per-step greedy descent at layer,
// returning the closest node found before no neighbor improves on the
// current best.
func (h *HNSW) greedyClosest(start string, query embedding.Vector, layer int) string {
	current := start
	currentScore := embedding.Cosine(query, h.nodes[current].vector)
	for {
		improved := false
		n := h.nodes[current]
		if layer < len(n.neighbors) {
			for _, nb := range n.neighbors[layer] {
				other, ok := h.nodes[nb]
				if !ok {
					continue
				}
				score := embedding.Cosine(query, other.vector)
				if score > currentScore {
					current = nb
					currentScore = score
					improved = true
				}
			}
		}
		if !improved {
			return current
		}
	}
}

// searchLayer runs a bounded best-first search at layer starting from ep,
// returning up to ef candidates ordered by descending similarity.
func (h *HNSW) searchLayer(query embedding.Vector, ep string, ef int, layer int) []scoredID {
	visited := map[string]bool{ep: true}
	epScore := embedding.Cosine(query, h.nodes[ep].vector)
	candidates := []scoredID{{id: ep, score: epScore}}
	results := []scoredID{{id: ep, score: epScore}}

	for len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
		best := candidates[0]
		candidates = candidates[1:]

		sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
		worstResult := results[len(results)-1].score
		if best.score < worstResult && len(results) >= ef {
			break
		}

		n := h.nodes[best.id]
		if layer >= len(n.neighbors) {
			continue
		}
		for _, nb := range n.neighbors[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			other, ok := h.nodes[nb]
			if !ok {
				continue
			}
			score := embedding.Cosine(query, other.vector)
			candidates = append(candidates, scoredID{id: nb, score: score})
			results = append(results, scoredID{id: nb, score: score})
			if len(results) > ef {
				sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
				results = results[:ef]
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	return results
}

// selectNeighbors keeps the first cap candidates, which searchLayer
// returns closest first. It does no filtering of its own.
func selectNeighbors(candidates []scoredID, cap int, _ embedding.Vector) []string {
	out := make([]string, 0, cap)
	for _, c := range candidates {
		if len(out) >= cap {
			break
		}
		out = append(out, c.id)
	}
	return out
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

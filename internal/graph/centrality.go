package graph

const (
	dampingFactor     = 0.85
	centralityRounds  = 20
	minOutDegreeShare = 1e-9
)

// Centrality computes a damped-random-walk centrality score per node,
// the spec §9 open-question resolution favoring resistance to gaming by
// high-frequency low-value edges over plain in-degree. Scores are
// normalized so the highest-scoring node is exactly 1.0.
func (g *Graph) Centrality() map[string]float64 {
	g.mu.Lock()
	nodes := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		nodes = append(nodes, id)
	}
	outEdges := make(map[string][]Edge, len(g.edges))
	for from, edges := range g.edges {
		cp := make([]Edge, len(edges))
		copy(cp, edges)
		outEdges[from] = cp
	}
	g.mu.Unlock()

	if len(nodes) == 0 {
		return map[string]float64{}
	}

	n := float64(len(nodes))
	scores := make(map[string]float64, len(nodes))
	for _, id := range nodes {
		scores[id] = 1.0 / n
	}

	outWeight := make(map[string]float64, len(nodes))
	for _, id := range nodes {
		var total float64
		for _, e := range outEdges[id] {
			total += e.Weight
		}
		outWeight[id] = total
	}

	for round := 0; round < centralityRounds; round++ {
		next := make(map[string]float64, len(nodes))
		base := (1 - dampingFactor) / n
		for _, id := range nodes {
			next[id] = base
		}
		for _, from := range nodes {
			total := outWeight[from]
			if total < minOutDegreeShare {
				// Dangling node: redistribute its mass evenly, the
				// standard random-surfer fix for sinks with no outgoing
				// edges.
				share := dampingFactor * scores[from] / n
				for _, id := range nodes {
					next[id] += share
				}
				continue
			}
			for _, e := range outEdges[from] {
				next[e.To] += dampingFactor * scores[from] * (e.Weight / total)
			}
		}
		scores = next
	}

	var max float64
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for id := range scores {
			scores[id] /= max
		}
	}
	return scores
}

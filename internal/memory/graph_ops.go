package memory

import (
	"context"
	"fmt"

	"github.com/rpggio/synapse/internal/graph"
	"github.com/rpggio/synapse/internal/store"
)

// GraphAddEdge adds a directed, labeled, weighted, typed edge between two
// records owned by the same owner, persisting it to the connections
// shadow table so it survives a restart (spec §4.4, §6's
// graph_add_edge).
func (s *Service) GraphAddEdge(ctx context.Context, ownerID, fromID, toID, label, edgeType string, weight float64) error {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	st.graph.AddEdge(fromID, toID, label, edgeType, weight)
	return st.index.RecordEdge(ctx, ownerID, store.ConnectionRow{
		FromID: fromID, ToID: toID, Label: label, EdgeType: edgeType, Weight: weight,
	})
}

// GraphRelated returns every edge touching a record, in either direction
// (spec §6's graph_related).
func (s *Service) GraphRelated(ownerID, recordID string) ([]graph.Edge, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.graph.Related(recordID), nil
}

// GraphTraverse runs a breadth-first search from recordID up to maxDepth
// hops (spec §6's graph_traverse).
func (s *Service) GraphTraverse(ownerID, recordID string, maxDepth int) ([]graph.TraversalHit, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.graph.Traverse(recordID, maxDepth), nil
}

// GraphCentrality recomputes damped-random-walk centrality for every node
// and persists the scores into the structured index (spec §6's
// graph_centrality), so query_records can sort/filter by centrality
// without recomputing it on every call.
func (s *Service) GraphCentrality(ctx context.Context, ownerID string) (map[string]float64, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	scores := st.graph.Centrality()
	for id, score := range scores {
		if err := st.index.UpdateCentrality(ctx, ownerID, id, score); err != nil {
			return nil, fmt.Errorf("persist centrality for %s: %w", id, err)
		}
	}
	return scores, nil
}

// GraphStronglyConnected returns the IDs with a mutual, two-way tie to
// recordID — an outgoing edge from it and an incoming edge back to it
// (spec §4.4's strongly_connected).
func (s *Service) GraphStronglyConnected(ownerID, recordID string) ([]string, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.graph.StronglyConnected(recordID), nil
}

// GraphDeleteNode removes a node and every edge touching it.
func (s *Service) GraphDeleteNode(ownerID, recordID string) error {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.graph.DeleteNode(recordID)
	return nil
}

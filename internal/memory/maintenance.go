package memory

import (
	"fmt"
	"os"

	"github.com/rpggio/synapse/internal/graph"
	"github.com/rpggio/synapse/internal/vector"
)

// RebuildOverlays drops and re-derives an owner's in-memory overlays (the
// association graph and vector index) from the structured index's
// durable state, the maintenance operation spec §9's design notes imply
// but leave to operator tooling rather than the conversational surface.
// Useful after an embedding provider outage left records without a
// vector, or after an upgrade that changes the vector index's internal
// layout.
func (s *Service) RebuildOverlays(ownerID string) error {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	freshGraph := graph.New()
	if err := rebuildGraph(freshGraph, st.index, ownerID); err != nil {
		return fmt.Errorf("rebuild graph: %w", err)
	}

	freshVectors := vector.New(vector.DefaultConfig())
	if err := rebuildVectorIndex(freshVectors, s.embed, st.index, ownerID); err != nil {
		return fmt.Errorf("rebuild vector index: %w", err)
	}

	st.graph = freshGraph
	st.vectors = freshVectors
	return nil
}

// Owners lists every owner root persisted under the substrate's data root
// by scanning the filesystem layout, so a maintenance command can fan a
// rebuild or stats run out across all owners in a fresh process without
// first touching each one through the conversational surface.
func (s *Service) Owners() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.DataRoot.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list data root: %w", err)
	}
	var owners []string
	for _, e := range entries {
		if e.IsDir() {
			owners = append(owners, e.Name())
		}
	}
	return owners, nil
}

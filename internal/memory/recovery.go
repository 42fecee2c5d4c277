package memory

import (
	"context"
	"fmt"

	"github.com/rpggio/synapse/internal/embedding"
	"github.com/rpggio/synapse/internal/graph"
	"github.com/rpggio/synapse/internal/store"
	"github.com/rpggio/synapse/internal/vector"
)

// rebuildGraph replays the connections shadow table into a fresh
// in-memory association graph on startup (spec §4.4's durability story
// for an otherwise in-memory structure).
func rebuildGraph(g *graph.Graph, idx *store.Index, ownerID string) error {
	edges, err := idx.LoadEdges(context.Background(), ownerID)
	if err != nil {
		return fmt.Errorf("rebuild graph: %w", err)
	}
	for _, e := range edges {
		g.AddEdge(e.FromID, e.ToID, e.Label, e.EdgeType, e.Weight)
	}
	return nil
}

// rebuildVectorIndex re-embeds every unarchived primary-tier record into
// a fresh HNSW index, recording an embedding_ref for records that had
// none (such as records written while the embedding provider was
// failing). Errors for individual records are non-fatal; the index
// simply omits them until the next rebuild, consistent with the overlay
// being best-effort (spec §4.1).
func rebuildVectorIndex(idx *vector.HNSW, provider embedding.Provider, ix *store.Index, ownerID string) error {
	records, err := ix.ListByOwner(context.Background(), ownerID, store.QueryFilter{IncludeArchived: false})
	if err != nil {
		return fmt.Errorf("list records for vector rebuild: %w", err)
	}
	for _, r := range records {
		v, err := provider.Embed(context.Background(), r.Content)
		if err != nil {
			continue
		}
		idx.Insert(r.ID, v)
		if r.EmbeddingRef == "" {
			_ = ix.SetEmbeddingRef(context.Background(), ownerID, r.ID, r.ID)
		}
	}
	return nil
}

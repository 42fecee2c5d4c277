package memory

import (
	"context"
	"fmt"

	"github.com/rpggio/synapse/internal/vector"
)

// VectorSearch embeds queryText and returns the topK nearest records by
// cosine similarity (spec §6's vector_search, §4.2).
func (s *Service) VectorSearch(ctx context.Context, ownerID, queryText string, topK int) ([]vector.Match, error) {
	if s.embed == nil {
		return nil, nil
	}
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}

	queryVec, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.vectors.Search(queryVec, topK), nil
}

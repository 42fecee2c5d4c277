package memory

import (
	"context"

	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/rpggio/synapse/internal/store"
	"github.com/rpggio/synapse/internal/synthesis"
)

// graphSeedDepth bounds how far TurnContext walks the association graph
// from the FTS/vector hits before folding related records in as a
// relational source.
const graphSeedDepth = 2

// workingSetSize bounds how many of the owner's most-recently-created
// records feed the working-set recall source.
const workingSetSize = 20

// turnContextWeights are the fixed per-source weights turn_context always
// uses, regardless of the caller's own recall preferences (spec §4.5:
// "Uses fixed options: all four sources on, weights (vector 0.4, graph
// 0.3, fts 0.2, working 0.1)").
var turnContextWeights = map[synthesis.Source]float64{
	synthesis.SourceVector:     0.4,
	synthesis.SourceGraph:      0.3,
	synthesis.SourceFullText:   0.2,
	synthesis.SourceWorkingSet: 0.1,
}

// TurnContext runs the full Synthesis Layer recall pipeline (spec §6's
// turn_context): it fans out to the lexical, semantic, relational, and
// working-set sources, fuses them with the fixed-weight algorithm, drops
// what the requester may not read, applies the configured score/result
// cutoff scaled by the weights in play, and packs the survivors into a
// token-budgeted bundle.
func (s *Service) TurnContext(ctx context.Context, ownerID, requesterID, queryText string, tokenBudget int) (synthesis.Bundle, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return synthesis.Bundle{}, err
	}

	st.mu.Lock()
	bySource, err := s.collectCandidates(ctx, st, ownerID, queryText)
	st.mu.Unlock()
	if err != nil {
		return synthesis.Bundle{}, err
	}

	maxResults := s.cfg.Synthesis.MaxResults
	fused := synthesis.WeightedFuse(bySource, turnContextWeights, 0)
	fused = synthesis.FilterVisible(fused, requesterID, s.teams)

	var weightSum float64
	for _, w := range turnContextWeights {
		weightSum += w
	}
	fused = synthesis.ApplyThreshold(fused, s.cfg.Synthesis.SimilarityThreshold*weightSum, maxResults)

	if tokenBudget <= 0 {
		tokenBudget = s.cfg.Synthesis.TokenBudget
	}
	return synthesis.AssembleContext(fused, tokenBudget), nil
}

// SynthesisRecall runs the candidate-fusion pipeline against
// caller-supplied recall_options (spec §6's synthesis_recall) rather than
// turn_context's fixed weights, letting a caller choose which sources to
// query, how they're weighted, the cutoff, the result cap, and the fusion
// algorithm.
func (s *Service) SynthesisRecall(ctx context.Context, ownerID, requesterID, queryText string, opts synthesis.RecallOptions) ([]synthesis.RecallResult, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	bySource, err := s.collectCandidates(ctx, st, ownerID, queryText)
	st.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return synthesis.Recall(bySource, requesterID, s.teams, opts), nil
}

func (s *Service) collectCandidates(ctx context.Context, st *ownerState, ownerID, queryText string) (map[synthesis.Source][]synthesis.Candidate, error) {
	bySource := map[synthesis.Source][]synthesis.Candidate{}

	ftsHits, err := st.index.FullText(ctx, ownerID, queryText, 20)
	if err != nil {
		return nil, err
	}
	fts := make([]synthesis.Candidate, 0, len(ftsHits))
	for _, h := range ftsHits {
		// bm25 ranks lower-is-better; invert so higher is better before
		// min-max normalization, matching every other source's convention.
		fts = append(fts, synthesis.Candidate{Record: h.Record, Score: -h.Rank, Source: synthesis.SourceFullText})
	}
	bySource[synthesis.SourceFullText] = fts

	seeds := make([]string, 0, len(ftsHits))
	for _, h := range ftsHits {
		seeds = append(seeds, h.Record.ID)
	}

	if s.embed != nil && queryText != "" {
		queryVec, err := s.embed.Embed(ctx, queryText)
		if err == nil {
			matches := st.vectors.Search(queryVec, 20)
			vec := make([]synthesis.Candidate, 0, len(matches))
			for _, m := range matches {
				rec, err := st.index.Get(ctx, ownerID, m.RecordID)
				if err != nil {
					continue
				}
				vec = append(vec, synthesis.Candidate{Record: rec, Score: m.Score, Source: synthesis.SourceVector})
				seeds = append(seeds, rec.ID)
			}
			bySource[synthesis.SourceVector] = vec
		} else {
			s.logger.Warn("query embedding failed, skipping vector recall", "owner_id", ownerID, "error", err)
		}
	}

	var graphCandidates []synthesis.Candidate
	seen := map[string]bool{}
	for _, seedID := range seeds {
		for _, hit := range st.graph.Traverse(seedID, graphSeedDepth) {
			if seen[hit.ID] {
				continue
			}
			seen[hit.ID] = true
			rec, err := st.index.Get(ctx, ownerID, hit.ID)
			if err != nil {
				continue
			}
			graphCandidates = append(graphCandidates, synthesis.Candidate{Record: rec, Score: hit.Strength, Source: synthesis.SourceGraph})
		}
	}
	bySource[synthesis.SourceGraph] = graphCandidates

	working, err := st.index.ListByOwner(ctx, ownerID, store.QueryFilter{Limit: workingSetSize})
	if err != nil {
		return nil, err
	}
	ws := make([]synthesis.Candidate, 0, len(working))
	for _, rec := range working {
		// Recency is the working-set score: most-recently-created first,
		// min-max normalized alongside the rest of the set during fusion.
		ws = append(ws, synthesis.Candidate{Record: rec, Score: float64(rec.CreatedAt.Unix()), Source: synthesis.SourceWorkingSet})
	}
	bySource[synthesis.SourceWorkingSet] = ws

	compressed, err := st.index.ListCompressed(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	comp := make([]synthesis.Candidate, 0, len(compressed))
	for _, cr := range compressed {
		comp = append(comp, synthesis.Candidate{
			Record: compressedAsRecord(cr),
			Score:  cr.AggregatedImportance,
			Source: synthesis.SourceCompressed,
		})
	}
	bySource[synthesis.SourceCompressed] = comp

	return bySource, nil
}

// compressedAsRecord projects a compressed-tier summary into the record
// shape synthesis candidates share, so a cluster summary can flow through
// the same fusion and preview path as a primary-tier record.
func compressedAsRecord(cr store.CompressedRecord) *record.Record {
	return &record.Record{
		ID:        cr.ID,
		OwnerID:   cr.OwnerID,
		Content:   cr.SummaryText,
		Type:      record.Type(cr.DominantType),
		CreatedAt: cr.CreatedAt,
		Isolation: record.IsolationPublic,
		Tier:      record.TierCompressed,
	}
}

// TurnReinforce bumps access tracking for a record surfaced in a turn's
// context, the lightweight feedback loop spec §4.5 describes for recall
// that a CI actually used.
func (s *Service) TurnReinforce(ctx context.Context, ownerID, recordID string) error {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.index.TouchNow(ctx, ownerID, recordID)
}

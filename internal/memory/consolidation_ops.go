package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/synapse/internal/audit"
	"github.com/rpggio/synapse/internal/consolidation"
	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/rpggio/synapse/internal/store"
)

// ArchiveOld runs the Consolidation Engine over an owner's non-archived
// records (spec §6's archive_old(owner, max_age_days) op): it detects
// patterns, plans archival per pattern (preserving outliers), folds
// standalone records that independently qualify, and moves every archived
// record into the compressed tier with a summary row. It returns how many
// records were archived. A negative maxAgeDays falls back to the
// configured default, since 0 is itself a meaningful threshold (archive
// everything old enough to have already been created).
func (s *Service) ArchiveOld(ctx context.Context, ownerID string, maxAgeDays int) (int, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	records, err := st.index.ListByOwner(ctx, ownerID, store.QueryFilter{IncludeArchived: false})
	if err != nil {
		return 0, err
	}

	cfg := s.cfg.Consolidation
	if maxAgeDays < 0 {
		maxAgeDays = cfg.MaxAgeDays
	}
	policy := consolidation.Policy{
		MaxAge:              time.Duration(maxAgeDays) * 24 * time.Hour,
		LowImportanceCutoff: cfg.LowImportanceCutoff,
		AccessCountCutoff:   cfg.AccessCountCutoff,
	}

	patterns := consolidation.DetectPatterns(records, cfg.MinPatternSize, cfg.SimilarityThreshold)
	now := time.Now()

	patterned := map[string]bool{}
	archived := 0
	for _, p := range patterns {
		for _, r := range p.Records {
			patterned[r.ID] = true
		}
		plan := consolidation.PlanArchival(p, now, policy)
		if len(plan.ToArchive) == 0 {
			continue
		}

		summary := p.Summary
		if s.summarizer != nil {
			if better, err := s.summarizer.Summarize(ctx, p); err != nil {
				s.logger.Warn("pattern summarizer failed, keeping deterministic summary", "pattern_id", p.ID, "error", err)
			} else if better != "" {
				summary = better
			}
		}

		// pattern_summary (spec §4.6) is distinct from the compressed-tier
		// summary above: it's the templated occurrence count a preserved
		// outlier carries, not a description of the cluster's content.
		patternSummary := fmt.Sprintf("Pattern: %d occurrences (%d archived, %d preserved as outliers)",
			p.Frequency, len(plan.ToArchive), len(p.Outliers))

		for _, r := range p.Records {
			outlier := p.Outliers[r.ID]
			membership := &record.PatternMembership{PatternID: p.ID, Frequency: p.Frequency, IsOutlier: outlier}
			if outlier {
				membership.Summary = patternSummary
			}
			if err := st.index.SetPattern(ctx, ownerID, r.ID, membership); err != nil {
				return archived, fmt.Errorf("set pattern membership: %w", err)
			}
		}

		if _, err := st.index.InsertCompressed(ctx, store.CompressedRecord{
			OwnerID:              ownerID,
			SummaryText:          summary,
			SourceIDs:            plan.SourceIDs,
			TimeRangeStart:       plan.TimeStart,
			TimeRangeEnd:         plan.TimeEnd,
			DominantType:         string(plan.DominantType),
			AggregatedImportance: consolidation.AggregatedImportance(plan.ToArchive),
		}); err != nil {
			return archived, fmt.Errorf("insert compressed record: %w", err)
		}

		for _, r := range plan.ToArchive {
			if err := st.index.Archive(ctx, ownerID, r.ID); err != nil {
				return archived, fmt.Errorf("archive pattern member %s: %w", r.ID, err)
			}
			archived++
		}

		st.auditLog.Append(audit.Entry{
			Kind:     audit.KindConsolidation,
			Actor:    ownerID,
			TargetID: p.ID,
			Reason:   fmt.Sprintf("archived %d of %d pattern members", len(plan.ToArchive), len(p.Records)),
		})
	}

	for _, r := range records {
		if patterned[r.ID] {
			continue
		}
		if !consolidation.ShouldArchive(r, now, policy) {
			continue
		}
		if _, err := st.index.InsertCompressed(ctx, store.CompressedRecord{
			OwnerID:              ownerID,
			SummaryText:          r.Content,
			SourceIDs:            []string{r.ID},
			TimeRangeStart:       r.CreatedAt,
			TimeRangeEnd:         r.CreatedAt,
			DominantType:         string(r.Type),
			AggregatedImportance: r.Importance,
		}); err != nil {
			return archived, fmt.Errorf("insert compressed record for standalone %s: %w", r.ID, err)
		}
		if err := st.index.Archive(ctx, ownerID, r.ID); err != nil {
			return archived, fmt.Errorf("archive standalone %s: %w", r.ID, err)
		}
		archived++
	}

	return archived, nil
}

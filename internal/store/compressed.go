package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CompressedRecord is an archived cluster summary (spec §4.6). Synthesis
// collects these as compressed-source candidates, but neither
// turn_context nor synthesis_recall gives that source a weight, so they
// do not appear in fused results.
type CompressedRecord struct {
	ID                   string
	OwnerID              string
	SummaryText          string
	SourceIDs            []string
	TimeRangeStart       time.Time
	TimeRangeEnd         time.Time
	DominantType         string
	AggregatedImportance float64
	CreatedAt            time.Time
}

// InsertCompressed archives a cluster summary into the compressed tier.
func (ix *Index) InsertCompressed(ctx context.Context, cr CompressedRecord) (string, error) {
	if cr.ID == "" {
		cr.ID = uuid.NewString()
	}
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = nowUTC()
	}
	sourceIDs, err := json.Marshal(cr.SourceIDs)
	if err != nil {
		return "", fmt.Errorf("marshal source ids: %w", err)
	}
	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO compressed_records (
			id, owner_id, summary_text, source_ids, time_range_start, time_range_end,
			dominant_type, aggregated_importance, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)
	`, cr.ID, cr.OwnerID, cr.SummaryText, string(sourceIDs), cr.TimeRangeStart.UTC(), cr.TimeRangeEnd.UTC(),
		cr.DominantType, cr.AggregatedImportance, cr.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("%w: insert compressed record: %v", ErrStorageFailure, err)
	}
	return cr.ID, nil
}

// ListCompressed returns every compressed-tier summary for an owner,
// newest first.
func (ix *Index) ListCompressed(ctx context.Context, ownerID string) ([]CompressedRecord, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, owner_id, summary_text, source_ids, time_range_start, time_range_end,
			dominant_type, aggregated_importance, created_at
		FROM compressed_records WHERE owner_id = ? ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list compressed records: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []CompressedRecord
	for rows.Next() {
		var cr CompressedRecord
		var sourceIDs string
		if err := rows.Scan(&cr.ID, &cr.OwnerID, &cr.SummaryText, &sourceIDs, &cr.TimeRangeStart, &cr.TimeRangeEnd,
			&cr.DominantType, &cr.AggregatedImportance, &cr.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan compressed record: %v", ErrStorageFailure, err)
		}
		_ = json.Unmarshal([]byte(sourceIDs), &cr.SourceIDs)
		out = append(out, cr)
	}
	return out, rows.Err()
}

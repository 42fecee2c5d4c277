package store

import (
	"context"
	"fmt"
)

// ConnectionRow mirrors one association-graph edge (spec §4.4) for
// durability. The graph itself lives in memory; this shadow table lets a
// restart rebuild it without replaying every write.
type ConnectionRow struct {
	FromID   string
	ToID     string
	Label    string
	EdgeType string
	Weight   float64
}

// RecordEdge persists one edge into the shadow table.
func (ix *Index) RecordEdge(ctx context.Context, ownerID string, e ConnectionRow) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO connections (owner_id, from_id, to_id, label, edge_type, weight, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ownerID, e.FromID, e.ToID, e.Label, e.EdgeType, e.Weight, nowUTC())
	if err != nil {
		return fmt.Errorf("%w: record edge: %v", ErrStorageFailure, err)
	}
	return nil
}

// LoadEdges returns every edge recorded for an owner, used to rebuild the
// in-memory association graph on startup.
func (ix *Index) LoadEdges(ctx context.Context, ownerID string) ([]ConnectionRow, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT from_id, to_id, label, edge_type, weight FROM connections WHERE owner_id = ? ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: load edges: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []ConnectionRow
	for rows.Next() {
		var e ConnectionRow
		if err := rows.Scan(&e.FromID, &e.ToID, &e.Label, &e.EdgeType, &e.Weight); err != nil {
			return nil, fmt.Errorf("%w: scan edge: %v", ErrStorageFailure, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

package memory

import (
	"context"

	"github.com/rpggio/synapse/internal/audit"
	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/rpggio/synapse/internal/store"
)

// Get retrieves a record by ID, enforcing check_read (spec §4.1) and
// bumping access tracking on a successful read. A denied read is audited
// with ExplainDenial's reason so the decision can be reconstructed later.
func (s *Service) Get(ctx context.Context, ownerID, requesterID, id string) (*record.Record, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	rec, err := st.index.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !record.CheckRead(requesterID, rec, s.teams) {
		st.auditLog.Append(audit.Entry{
			Kind:     audit.KindAccessDenied,
			Actor:    requesterID,
			TargetID: id,
			Reason:   record.ExplainDenial(requesterID, rec),
		})
		return nil, record.ErrAccessDenied
	}

	if err := st.index.TouchNow(ctx, ownerID, id); err != nil {
		s.logger.Warn("touch on read failed", "record_id", id, "error", err)
	}
	return rec, nil
}

// QueryRecords lists records matching filter, scoped to what requesterID
// may read (spec §6's query_records op).
func (s *Service) QueryRecords(ctx context.Context, ownerID, requesterID string, filter store.QueryFilter) ([]*record.Record, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	records, err := st.index.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	visible := records[:0]
	for _, r := range records {
		if record.CheckRead(requesterID, r, s.teams) {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// RecordStats computes record_stats for an owner (spec §6).
func (s *Service) RecordStats(ctx context.Context, ownerID string) (store.Stats, error) {
	st, err := s.ownerState(ownerID)
	if err != nil {
		return store.Stats{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.index.Stats(ctx, ownerID)
}

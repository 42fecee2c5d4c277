package memory

import (
	"context"
	"fmt"

	"github.com/rpggio/synapse/internal/audit"
	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/rpggio/synapse/internal/store"
)

// CreateRecord runs the Universal Write Path (spec §4.1, §6's
// create_record+store_record fused into one call): it validates and
// constructs the record, appends content to the critical store (segment
// file + structured index), then applies the vector and graph overlays
// best-effort. A critical-store failure aborts the write and returns an
// error; an overlay failure is absorbed and audited with enough detail
// to reconstruct it later, and the record is still returned successfully.
func (s *Service) CreateRecord(ctx context.Context, req record.CreateRequest) (*record.Record, error) {
	rec, err := record.Create(req)
	if err != nil {
		return nil, err
	}

	st, err := s.ownerState(rec.OwnerID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	path, offset, length, err := st.segments.Append([]byte(rec.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: append content: %v", store.ErrStorageFailure, err)
	}
	if err := st.index.Insert(ctx, rec, path, offset, length); err != nil {
		return nil, err
	}

	st.graph.GetOrCreateNode(rec.ID)

	if s.embed != nil {
		vec, err := s.embed.Embed(ctx, rec.Content)
		if err != nil {
			s.auditOverlayFailure(st, rec, "embedding", err)
		} else {
			st.vectors.Insert(rec.ID, vec)
			ref := rec.ID
			if err := st.index.SetEmbeddingRef(ctx, rec.OwnerID, rec.ID, ref); err != nil {
				s.auditOverlayFailure(st, rec, "embedding_ref", err)
			} else {
				rec.EmbeddingRef = ref
			}
		}
	}

	if _, err := st.auditLog.Append(audit.Entry{
		Kind:     audit.KindCreateRecord,
		Actor:    rec.OwnerID,
		TargetID: rec.ID,
	}); err != nil {
		s.logger.Warn("audit append failed", "record_id", rec.ID, "error", err)
	}

	return rec, nil
}

func (s *Service) auditOverlayFailure(st *ownerState, rec *record.Record, component string, cause error) {
	s.logger.Warn("overlay write failed", "owner_id", rec.OwnerID, "record_id", rec.ID, "component", component, "error", cause)
	_, auditErr := st.auditLog.Append(audit.Entry{
		Kind:     audit.KindOverlayFailed,
		Actor:    rec.OwnerID,
		TargetID: rec.ID,
		Reason:   component + " overlay failed",
		Detail:   fmt.Sprintf(`{"component":%q,"record_id":%q,"content_length":%d}`, component, rec.ID, len(rec.Content)),
	})
	if auditErr != nil {
		s.logger.Error("audit append for overlay failure also failed", "record_id", rec.ID, "error", auditErr)
	}
}

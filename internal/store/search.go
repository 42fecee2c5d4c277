package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rpggio/synapse/internal/domain/record"
)

// SearchResult pairs a record with its FTS5 bm25 rank, lower being more
// relevant, the same convention the teacher's search repository uses.
type SearchResult struct {
	Record *record.Record
	Rank   float64
}

// FullText runs an FTS5 MATCH query scoped to an owner, the lexical leg of
// synthesis fusion (spec §4.5).
func (ix *Index) FullText(ctx context.Context, ownerID, query string, limit int) ([]SearchResult, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT r.id, r.owner_id, r.created_at, r.last_accessed_at, r.access_count, r.type, r.content,
			r.importance, r.emotion_pleasure, r.emotion_arousal, r.emotion_dominance,
			r.marks_important, r.marks_forgettable, r.isolation, r.team_name, r.tier,
			r.formation_question, r.formation_resolution, r.formation_uncertainty, r.formation_related_to,
			r.pattern_id, r.pattern_frequency, r.pattern_is_outlier, r.pattern_summary,
			r.centrality, r.embedding_ref, r.archived, r.version,
			bm25(records_fts) AS rank
		FROM records_fts
		JOIN records r ON r.rowid = records_fts.rowid
		WHERE r.owner_id = ? AND r.archived = 0 AND records_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ownerID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: fts search: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		rec, rank, err := scanSearchRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan search result: %v", ErrStorageFailure, err)
		}
		out = append(out, SearchResult{Record: rec, Rank: rank})
	}
	return out, rows.Err()
}

func scanSearchRow(rows *sql.Rows) (*record.Record, float64, error) {
	var rec record.Record
	var pleasure, arousal, dominance sql.NullFloat64
	var teamName, embeddingRef sql.NullString
	var question, resolution, uncertainty sql.NullString
	var relatedTo string
	var patternID sql.NullString
	var patternFrequency sql.NullInt64
	var patternIsOutlier sql.NullBool
	var patternSummary sql.NullString
	var rank float64

	err := rows.Scan(
		&rec.ID, &rec.OwnerID, &rec.CreatedAt, &rec.LastAccessedAt, &rec.AccessCount, &rec.Type, &rec.Content,
		&rec.Importance, &pleasure, &arousal, &dominance,
		&rec.Marks.Important, &rec.Marks.Forgettable, &rec.Isolation, &teamName, &rec.Tier,
		&question, &resolution, &uncertainty, &relatedTo,
		&patternID, &patternFrequency, &patternIsOutlier, &patternSummary,
		&rec.Centrality, &embeddingRef, &rec.Archived, &rec.Version,
		&rank,
	)
	if err != nil {
		return nil, 0, err
	}

	if pleasure.Valid {
		rec.Emotion = &record.Emotion{Pleasure: pleasure.Float64, Arousal: arousal.Float64, Dominance: dominance.Float64}
	}
	rec.TeamName = teamName.String
	rec.EmbeddingRef = embeddingRef.String

	if question.Valid || resolution.Valid || uncertainty.Valid {
		var related []string
		_ = json.Unmarshal([]byte(relatedTo), &related)
		rec.FormationContext = &record.FormationContext{
			Question:    question.String,
			Resolution:  resolution.String,
			Uncertainty: uncertainty.String,
			RelatedTo:   related,
		}
	}

	if patternID.Valid {
		rec.Pattern = &record.PatternMembership{
			PatternID: patternID.String,
			Frequency: int(patternFrequency.Int64),
			IsOutlier: patternIsOutlier.Bool,
			Summary:   patternSummary.String,
		}
	}

	return &rec, rank, nil
}

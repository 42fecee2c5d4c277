package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/synapse/internal/domain/record"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Index is the structured-index half of the Primary Store: it persists
// record metadata and a denormalized content copy used for previews and
// FTS, while the authoritative content body lives in the append-only
// segment files (spec §4.2).
type Index struct {
	db *DB
}

// NewIndex wraps an owner's database as a structured index.
func NewIndex(db *DB) *Index {
	return &Index{db: db}
}

// Insert persists a new record row. The caller has already appended the
// record's content to a segment and filled in the resulting pointer.
func (ix *Index) Insert(ctx context.Context, rec *record.Record, contentPath string, contentOffset, contentLength int64) error {
	relatedTo, err := json.Marshal(formationRelatedTo(rec))
	if err != nil {
		return fmt.Errorf("marshal related_to: %w", err)
	}

	var pleasure, arousal, dominance sql.NullFloat64
	if rec.Emotion != nil {
		pleasure = sql.NullFloat64{Float64: rec.Emotion.Pleasure, Valid: true}
		arousal = sql.NullFloat64{Float64: rec.Emotion.Arousal, Valid: true}
		dominance = sql.NullFloat64{Float64: rec.Emotion.Dominance, Valid: true}
	}

	var question, resolution, uncertainty sql.NullString
	if rec.FormationContext != nil {
		question = sql.NullString{String: rec.FormationContext.Question, Valid: rec.FormationContext.Question != ""}
		resolution = sql.NullString{String: rec.FormationContext.Resolution, Valid: rec.FormationContext.Resolution != ""}
		uncertainty = sql.NullString{String: rec.FormationContext.Uncertainty, Valid: rec.FormationContext.Uncertainty != ""}
	}

	var patternID sql.NullString
	var patternFrequency sql.NullInt64
	var patternIsOutlier sql.NullBool
	var patternSummary sql.NullString
	if rec.Pattern != nil {
		patternID = sql.NullString{String: rec.Pattern.PatternID, Valid: true}
		patternFrequency = sql.NullInt64{Int64: int64(rec.Pattern.Frequency), Valid: true}
		patternIsOutlier = sql.NullBool{Bool: rec.Pattern.IsOutlier, Valid: true}
		patternSummary = sql.NullString{String: rec.Pattern.Summary, Valid: rec.Pattern.Summary != ""}
	}

	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO records (
			id, owner_id, created_at, last_accessed_at, access_count, type, content,
			content_path, content_offset, content_length, importance,
			emotion_pleasure, emotion_arousal, emotion_dominance,
			marks_important, marks_forgettable, isolation, team_name, tier,
			formation_question, formation_resolution, formation_uncertainty, formation_related_to,
			pattern_id, pattern_frequency, pattern_is_outlier, pattern_summary,
			centrality, embedding_ref, archived, version
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		rec.ID, rec.OwnerID, rec.CreatedAt.UTC(), rec.LastAccessedAt.UTC(), rec.AccessCount, rec.Type, rec.Content,
		contentPath, contentOffset, contentLength, rec.Importance,
		pleasure, arousal, dominance,
		rec.Marks.Important, rec.Marks.Forgettable, rec.Isolation, nullableString(rec.TeamName), rec.Tier,
		question, resolution, uncertainty, string(relatedTo),
		patternID, patternFrequency, patternIsOutlier, patternSummary,
		rec.Centrality, nullableString(rec.EmbeddingRef), rec.Archived, rec.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: record %s already exists", record.ErrConflict, rec.ID)
		}
		return fmt.Errorf("%w: insert record: %v", ErrStorageFailure, err)
	}
	return nil
}

// Get retrieves a record by ID, scoped to owner.
func (ix *Index) Get(ctx context.Context, ownerID, id string) (*record.Record, error) {
	row := ix.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? AND owner_id = ?`, id, ownerID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get record: %v", ErrStorageFailure, err)
	}
	return rec, nil
}

// QueryFilter narrows ListByOwner and exposes the fields query_records
// (spec §6) filters on.
type QueryFilter struct {
	Types           []record.Type
	Isolations      []record.Isolation
	MinImportance   float64
	IncludeArchived bool
	TeamName        string
	Limit           int
	Offset          int
}

// ListByOwner returns records visible to a direct scan for an owner,
// applying the structured filters query_records exposes.
func (ix *Index) ListByOwner(ctx context.Context, ownerID string, f QueryFilter) ([]*record.Record, error) {
	query := selectColumns + ` WHERE owner_id = ?`
	args := []interface{}{ownerID}

	if !f.IncludeArchived {
		query += ` AND archived = 0`
	}
	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		query += fmt.Sprintf(` AND type IN (%s)`, strings.Join(placeholders, ","))
	}
	if len(f.Isolations) > 0 {
		placeholders := make([]string, len(f.Isolations))
		for i, iso := range f.Isolations {
			placeholders[i] = "?"
			args = append(args, iso)
		}
		query += fmt.Sprintf(` AND isolation IN (%s)`, strings.Join(placeholders, ","))
	}
	if f.TeamName != "" {
		query += ` AND team_name = ?`
		args = append(args, f.TeamName)
	}
	if f.MinImportance > 0 {
		query += ` AND importance >= ?`
		args = append(args, f.MinImportance)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, f.Offset)
		}
	}

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", ErrStorageFailure, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TouchNow bumps access tracking fields for a record read.
func (ix *Index) TouchNow(ctx context.Context, ownerID, id string) error {
	_, err := ix.db.ExecContext(ctx, `
		UPDATE records SET access_count = access_count + 1, last_accessed_at = ?
		WHERE id = ? AND owner_id = ?
	`, nowUTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("%w: touch record: %v", ErrStorageFailure, err)
	}
	return nil
}

// UpdateCentrality persists a recomputed centrality score (spec §4.4).
func (ix *Index) UpdateCentrality(ctx context.Context, ownerID, id string, centrality float64) error {
	_, err := ix.db.ExecContext(ctx, `UPDATE records SET centrality = ? WHERE id = ? AND owner_id = ?`, centrality, id, ownerID)
	if err != nil {
		return fmt.Errorf("%w: update centrality: %v", ErrStorageFailure, err)
	}
	return nil
}

// SetEmbeddingRef records where a record's vector lives once the vector
// index has absorbed it (spec §4.3 overlay pointer).
func (ix *Index) SetEmbeddingRef(ctx context.Context, ownerID, id, ref string) error {
	_, err := ix.db.ExecContext(ctx, `UPDATE records SET embedding_ref = ? WHERE id = ? AND owner_id = ?`, ref, id, ownerID)
	if err != nil {
		return fmt.Errorf("%w: set embedding ref: %v", ErrStorageFailure, err)
	}
	return nil
}

// SetPattern attaches or clears pattern membership (spec §4.6 consolidation).
func (ix *Index) SetPattern(ctx context.Context, ownerID, id string, p *record.PatternMembership) error {
	var patternID sql.NullString
	var frequency sql.NullInt64
	var isOutlier sql.NullBool
	var summary sql.NullString
	if p != nil {
		patternID = sql.NullString{String: p.PatternID, Valid: true}
		frequency = sql.NullInt64{Int64: int64(p.Frequency), Valid: true}
		isOutlier = sql.NullBool{Bool: p.IsOutlier, Valid: true}
		summary = sql.NullString{String: p.Summary, Valid: p.Summary != ""}
	}
	_, err := ix.db.ExecContext(ctx, `
		UPDATE records SET pattern_id = ?, pattern_frequency = ?, pattern_is_outlier = ?, pattern_summary = ?
		WHERE id = ? AND owner_id = ?
	`, patternID, frequency, isOutlier, summary, id, ownerID)
	if err != nil {
		return fmt.Errorf("%w: set pattern: %v", ErrStorageFailure, err)
	}
	return nil
}

// Archive marks a record archived, moving it out of the Primary Store's
// active view (spec §4.6); the caller is responsible for writing the
// compressed-tier row separately.
func (ix *Index) Archive(ctx context.Context, ownerID, id string) error {
	res, err := ix.db.ExecContext(ctx, `UPDATE records SET archived = 1, tier = 'COMPRESSED' WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("%w: archive record: %v", ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: archive record rows affected: %v", ErrStorageFailure, err)
	}
	if n == 0 {
		return record.ErrNotFound
	}
	return nil
}

// Stats reports aggregate counts for record_stats (spec §6).
type Stats struct {
	Total    int64
	Archived int64
	ByType   map[record.Type]int64
}

// Stats computes record_stats for an owner.
func (ix *Index) Stats(ctx context.Context, ownerID string) (Stats, error) {
	var s Stats
	s.ByType = map[record.Type]int64{}

	row := ix.db.QueryRowContext(ctx, `SELECT COUNT(*), SUM(archived) FROM records WHERE owner_id = ?`, ownerID)
	var archived sql.NullInt64
	if err := row.Scan(&s.Total, &archived); err != nil {
		return Stats{}, fmt.Errorf("%w: record stats: %v", ErrStorageFailure, err)
	}
	s.Archived = archived.Int64

	rows, err := ix.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM records WHERE owner_id = ? GROUP BY type`, ownerID)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: record stats by type: %v", ErrStorageFailure, err)
	}
	defer rows.Close()
	for rows.Next() {
		var t record.Type
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return Stats{}, fmt.Errorf("%w: scan type count: %v", ErrStorageFailure, err)
		}
		s.ByType[t] = n
	}
	return s, rows.Err()
}

const selectColumns = `
	SELECT id, owner_id, created_at, last_accessed_at, access_count, type, content,
		importance, emotion_pleasure, emotion_arousal, emotion_dominance,
		marks_important, marks_forgettable, isolation, team_name, tier,
		formation_question, formation_resolution, formation_uncertainty, formation_related_to,
		pattern_id, pattern_frequency, pattern_is_outlier, pattern_summary,
		centrality, embedding_ref, archived, version
	FROM records
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*record.Record, error) {
	var rec record.Record
	var pleasure, arousal, dominance sql.NullFloat64
	var teamName, embeddingRef sql.NullString
	var question, resolution, uncertainty sql.NullString
	var relatedTo string
	var patternID sql.NullString
	var patternFrequency sql.NullInt64
	var patternIsOutlier sql.NullBool
	var patternSummary sql.NullString

	err := s.Scan(
		&rec.ID, &rec.OwnerID, &rec.CreatedAt, &rec.LastAccessedAt, &rec.AccessCount, &rec.Type, &rec.Content,
		&rec.Importance, &pleasure, &arousal, &dominance,
		&rec.Marks.Important, &rec.Marks.Forgettable, &rec.Isolation, &teamName, &rec.Tier,
		&question, &resolution, &uncertainty, &relatedTo,
		&patternID, &patternFrequency, &patternIsOutlier, &patternSummary,
		&rec.Centrality, &embeddingRef, &rec.Archived, &rec.Version,
	)
	if err != nil {
		return nil, err
	}

	if pleasure.Valid {
		rec.Emotion = &record.Emotion{Pleasure: pleasure.Float64, Arousal: arousal.Float64, Dominance: dominance.Float64}
	}
	rec.TeamName = teamName.String
	rec.EmbeddingRef = embeddingRef.String

	if question.Valid || resolution.Valid || uncertainty.Valid || relatedTo != "" && relatedTo != "null" {
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

	return &rec, nil
}

func formationRelatedTo(rec *record.Record) []string {
	if rec.FormationContext == nil {
		return nil
	}
	return rec.FormationContext.RelatedTo
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

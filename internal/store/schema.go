package store

import "fmt"

// schemaSQL defines the structured index, the FTS5 search shadow table,
// the connections shadow table used to recover the in-memory association
// graph on restart (spec §4.4), and the compressed tier table (spec §4.6).
// Kept as an inline constant rather than an external migrations file so a
// single owner database self-initializes without a filesystem dependency
// beyond the owner root itself.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id                     TEXT PRIMARY KEY,
	owner_id               TEXT NOT NULL,
	created_at             TEXT NOT NULL,
	last_accessed_at       TEXT NOT NULL,
	access_count           INTEGER NOT NULL DEFAULT 0,
	type                   TEXT NOT NULL,
	content                TEXT NOT NULL,
	content_path           TEXT NOT NULL,
	content_offset         INTEGER NOT NULL,
	content_length         INTEGER NOT NULL,
	importance             REAL NOT NULL DEFAULT 0,
	emotion_pleasure       REAL,
	emotion_arousal        REAL,
	emotion_dominance      REAL,
	marks_important        INTEGER NOT NULL DEFAULT 0,
	marks_forgettable       INTEGER NOT NULL DEFAULT 0,
	isolation              TEXT NOT NULL,
	team_name              TEXT,
	tier                   TEXT NOT NULL DEFAULT 'PRIMARY',
	formation_question     TEXT,
	formation_resolution   TEXT,
	formation_uncertainty  TEXT,
	formation_related_to   TEXT,
	pattern_id             TEXT,
	pattern_frequency      INTEGER,
	pattern_is_outlier     INTEGER,
	pattern_summary        TEXT,
	centrality             REAL NOT NULL DEFAULT 0,
	embedding_ref          TEXT,
	archived               INTEGER NOT NULL DEFAULT 0,
	version                INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_records_owner_created ON records(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_records_owner_importance ON records(owner_id, importance DESC);
CREATE INDEX IF NOT EXISTS idx_records_owner_centrality ON records(owner_id, centrality DESC);
CREATE INDEX IF NOT EXISTS idx_records_type ON records(owner_id, type);
CREATE INDEX IF NOT EXISTS idx_records_archived ON records(owner_id, archived);
CREATE INDEX IF NOT EXISTS idx_records_pattern ON records(pattern_id);

CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
	content,
	content='records',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
	INSERT INTO records_fts(rowid, content) VALUES (new.rowid, new.content);
END;
CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
	INSERT INTO records_fts(records_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
END;
CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE ON records BEGIN
	INSERT INTO records_fts(records_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
	INSERT INTO records_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE IF NOT EXISTS connections (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id   TEXT NOT NULL,
	from_id    TEXT NOT NULL,
	to_id      TEXT NOT NULL,
	label      TEXT NOT NULL,
	edge_type  TEXT NOT NULL,
	weight     REAL NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_connections_owner ON connections(owner_id);
CREATE INDEX IF NOT EXISTS idx_connections_from ON connections(owner_id, from_id);

CREATE TABLE IF NOT EXISTS compressed_records (
	id                    TEXT PRIMARY KEY,
	owner_id              TEXT NOT NULL,
	summary_text          TEXT NOT NULL,
	source_ids            TEXT NOT NULL,
	time_range_start      TEXT NOT NULL,
	time_range_end        TEXT NOT NULL,
	dominant_type         TEXT NOT NULL,
	aggregated_importance REAL NOT NULL,
	created_at            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compressed_owner ON compressed_records(owner_id);
`

// teamSchemaSQL defines the shared (cross-owner) team tables, kept in a
// separate database from any single owner's structured index since team
// membership is not owner-scoped.
const teamSchemaSQL = `
CREATE TABLE IF NOT EXISTS teams (
	name       TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS team_members (
	team_name TEXT NOT NULL,
	ci_id     TEXT NOT NULL,
	joined_at TEXT NOT NULL,
	PRIMARY KEY (team_name, ci_id)
);
CREATE INDEX IF NOT EXISTS idx_team_members_ci ON team_members(ci_id);
`

func (db *DB) migrate() error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema migration: %w", err)
	}
	return nil
}

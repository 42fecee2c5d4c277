// Package store implements the Primary Store (spec §4.2): a per-owner
// SQLite structured index backed by append-only content segment files on
// disk, the way the teacher's internal/sqlite package wraps modernc.org/sqlite
// behind a typed DB handle.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a single owner's SQLite connection. Each owner gets its own
// database file under its owner root (spec §5's single-file-locked
// concurrency model), so cross-owner operations never contend on the
// same handle.
type DB struct {
	*sql.DB
	root string
}

// Open opens (creating if necessary) the structured index database for a
// single owner root and applies the schema migration idempotently.
func Open(ownerRoot string) (*DB, error) {
	dbPath := filepath.Join(ownerRoot, "index.db")
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	// A single owner database is only ever touched by the in-process
	// mutex-guarded service for that owner, but cap connections anyway
	// since SQLite serializes writers regardless.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := conn.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		return nil, fmt.Errorf("enable wal mode: %w", err)
	}

	db := &DB{DB: conn, root: ownerRoot}
	if err := db.migrate(); err != nil {
		return nil, err
	}
	return db, nil
}

// Root returns the owner root directory this database lives under.
func (db *DB) Root() string { return db.root }

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SharedDB wraps the cross-owner database used for data that isn't scoped
// to a single owner root, namely team membership (spec §3's teams are
// named sets of CIs, not owner-scoped).
type SharedDB struct {
	*sql.DB
}

// OpenShared opens (creating if necessary) the shared database under the
// substrate's data root.
func OpenShared(dataRoot string) (*SharedDB, error) {
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create data root: %w", err)
	}
	dbPath := filepath.Join(dataRoot, "shared.db")
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open shared database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := conn.Exec(teamSchemaSQL); err != nil {
		return nil, fmt.Errorf("apply team schema: %w", err)
	}
	return &SharedDB{DB: conn}, nil
}

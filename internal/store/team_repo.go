package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/synapse/internal/domain/team"
)

// TeamRepository implements team.Repository over the shared database.
type TeamRepository struct {
	db *SharedDB
}

// NewTeamRepository wraps a shared database as a team.Repository.
func NewTeamRepository(db *SharedDB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a team and seeds its owner as the first member.
func (r *TeamRepository) Create(ctx context.Context, t *team.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin create team: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO teams (name, owner_id, created_at) VALUES (?, ?, ?)`,
		t.Name, t.OwnerID, t.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return team.ErrDuplicate
		}
		return fmt.Errorf("%w: create team: %v", ErrStorageFailure, err)
	}
	for ci, joinedAt := range t.Members {
		if _, err := tx.ExecContext(ctx, `INSERT INTO team_members (team_name, ci_id, joined_at) VALUES (?, ?, ?)`,
			t.Name, ci, joinedAt.UTC()); err != nil {
			return fmt.Errorf("%w: seed team member: %v", ErrStorageFailure, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit create team: %v", ErrStorageFailure, err)
	}
	return nil
}

// Get loads a team and its current membership.
func (r *TeamRepository) Get(ctx context.Context, name string) (*team.Team, error) {
	var t team.Team
	row := r.db.QueryRowContext(ctx, `SELECT name, owner_id, created_at FROM teams WHERE name = ?`, name)
	if err := row.Scan(&t.Name, &t.OwnerID, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, team.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get team: %v", ErrStorageFailure, err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT ci_id, joined_at FROM team_members WHERE team_name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("%w: load members: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	members := map[string]time.Time{}
	for rows.Next() {
		var ci string
		var joinedAt time.Time
		if err := rows.Scan(&ci, &joinedAt); err != nil {
			return nil, fmt.Errorf("%w: scan member: %v", ErrStorageFailure, err)
		}
		members[ci] = joinedAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate members: %v", ErrStorageFailure, err)
	}
	t.Members = members
	return &t, nil
}

// Delete removes a team and its memberships.
func (r *TeamRepository) Delete(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete team: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE team_name = ?`, name); err != nil {
		return fmt.Errorf("%w: delete team members: %v", ErrStorageFailure, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("%w: delete team: %v", ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete team rows affected: %v", ErrStorageFailure, err)
	}
	if n == 0 {
		return team.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete team: %v", ErrStorageFailure, err)
	}
	return nil
}

// AddMember adds ci to a team's membership table.
func (r *TeamRepository) AddMember(ctx context.Context, name, ci string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO team_members (team_name, ci_id, joined_at) VALUES (?, ?, ?)`,
		name, ci, nowUTC())
	if err != nil {
		return fmt.Errorf("%w: add member: %v", ErrStorageFailure, err)
	}
	return nil
}

// RemoveMember removes ci from a team's membership table.
func (r *TeamRepository) RemoveMember(ctx context.Context, name, ci string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_name = ? AND ci_id = ?`, name, ci)
	if err != nil {
		return fmt.Errorf("%w: remove member: %v", ErrStorageFailure, err)
	}
	return nil
}

// ListMembers returns a team's current member CIs.
func (r *TeamRepository) ListMembers(ctx context.Context, name string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ci_id FROM team_members WHERE team_name = ? ORDER BY joined_at`, name)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ci string
		if err := rows.Scan(&ci); err != nil {
			return nil, fmt.Errorf("%w: scan member: %v", ErrStorageFailure, err)
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

// ListForCI returns every team name ci belongs to.
func (r *TeamRepository) ListForCI(ctx context.Context, ci string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT team_name FROM team_members WHERE ci_id = ? ORDER BY team_name`, ci)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams for ci: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan team name: %v", ErrStorageFailure, err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

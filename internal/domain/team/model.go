// Package team models owned sets of CIs and the membership rules that
// gate TEAM-isolated record visibility (spec §3).
package team

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidInput indicates a missing or malformed field.
	ErrInvalidInput = errors.New("invalid team input")
	// ErrNotFound indicates the team doesn't exist.
	ErrNotFound = errors.New("team not found")
	// ErrDuplicate indicates the team name is already taken.
	ErrDuplicate = errors.New("team already exists")
	// ErrOwnerCannotLeave indicates the owner tried to leave instead of
	// deleting the team.
	ErrOwnerCannotLeave = errors.New("owner cannot leave team, delete it instead")
	// ErrNotOwner indicates a non-owner attempted an owner-only action.
	ErrNotOwner = errors.New("requester is not the team owner")
	// ErrAlreadyMember indicates the CI is already a member.
	ErrAlreadyMember = errors.New("ci is already a team member")
	// ErrNotMember indicates the CI is not a member.
	ErrNotMember = errors.New("ci is not a team member")
)

// Team is an owned set of CIs (spec §3). Exactly one owner; the owner is
// always a member and cannot leave without deleting the team.
type Team struct {
	Name      string
	OwnerID   string
	Members   map[string]time.Time // ci_id -> joined_at
	CreatedAt time.Time
}

// NewTeam constructs a team with its owner as the sole initial member.
func NewTeam(name, ownerID string) (*Team, error) {
	name = strings.TrimSpace(name)
	ownerID = strings.TrimSpace(ownerID)
	if name == "" || ownerID == "" {
		return nil, ErrInvalidInput
	}
	now := time.Now()
	return &Team{
		Name:      name,
		OwnerID:   ownerID,
		Members:   map[string]time.Time{ownerID: now},
		CreatedAt: now,
	}, nil
}

// IsMember reports whether ci currently belongs to the team.
func (t *Team) IsMember(ci string) bool {
	_, ok := t.Members[ci]
	return ok
}

// Join adds ci as a member. Invited-by must be the owner (only the owner
// may add members per the policy-error taxonomy in spec §7.2).
func (t *Team) Join(ci, invitedBy string) error {
	if invitedBy != t.OwnerID {
		return ErrNotOwner
	}
	if t.IsMember(ci) {
		return ErrAlreadyMember
	}
	t.Members[ci] = time.Now()
	return nil
}

// Leave removes ci from the team. The owner can never leave.
func (t *Team) Leave(ci string) error {
	if ci == t.OwnerID {
		return ErrOwnerCannotLeave
	}
	if !t.IsMember(ci) {
		return ErrNotMember
	}
	delete(t.Members, ci)
	return nil
}

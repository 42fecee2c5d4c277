package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TeamMembership answers whether a requester belongs to a named team, used
// by CheckRead to resolve TEAM isolation without this package depending on
// the team package directly (it depends on record only, team depends on
// nothing — avoiding an import cycle and keeping Component I a thin policy
// layer over Component A, per spec §9 design notes).
type TeamMembership interface {
	IsMember(teamName, ci string) bool
}

// Create constructs a new record with a freshly generated id, validating
// shape before any field is set (spec §4.1 create_record). It never
// partially constructs: on error the zero value is returned alongside
// ErrInvalidInput.
func Create(req CreateRequest) (*Record, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Record{
		ID:             uuid.NewString(),
		OwnerID:        req.OwnerID,
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    0,
		Type:           req.Type,
		Content:        req.Content,
		Importance:     req.Importance,
		Emotion:        req.Emotion,
		Marks:          req.Marks,
		Isolation:      req.Isolation,
		TeamName:       req.TeamName,
		Tier:           TierPrimary,
		FormationContext: req.Context,
		Centrality:     0,
		Version:        1,
	}, nil
}

// CheckRead implements the access policy of spec §4.1: PUBLIC always
// allowed, PRIVATE only to the owner, TEAM to the owner or any member.
func CheckRead(requester string, rec *Record, teams TeamMembership) bool {
	switch rec.Isolation {
	case IsolationPublic:
		return true
	case IsolationPrivate:
		return requester == rec.OwnerID
	case IsolationTeam:
		if requester == rec.OwnerID {
			return true
		}
		if teams == nil {
			return false
		}
		return teams.IsMember(rec.TeamName, requester)
	default:
		return false
	}
}

// ExplainDenial produces the one-sentence human-readable explanation
// required by spec §4.1/§7 for a denied direct-read-by-id.
func ExplainDenial(requester string, rec *Record) string {
	switch rec.Isolation {
	case IsolationPrivate:
		return fmt.Sprintf("record %s is private to %s", rec.ID, rec.OwnerID)
	case IsolationTeam:
		return fmt.Sprintf("record %s is restricted to team %s, %s is not a member", rec.ID, rec.TeamName, requester)
	default:
		return fmt.Sprintf("record %s is not readable by %s", rec.ID, requester)
	}
}

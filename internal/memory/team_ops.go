package memory

import (
	"context"

	"github.com/rpggio/synapse/internal/audit"
	"github.com/rpggio/synapse/internal/domain/team"
)

// TeamCreate creates a new team owned by ownerID (spec §6's team_create).
func (s *Service) TeamCreate(ctx context.Context, name, ownerID string) (*team.Team, error) {
	t, err := s.teams.Create(ctx, name, ownerID)
	if err != nil {
		return nil, err
	}
	s.auditTeamChange(ownerID, name, "team created")
	return t, nil
}

// TeamJoin adds ci to a team, gated on invitedBy being the team's owner
// (spec §6's team_join).
func (s *Service) TeamJoin(ctx context.Context, name, ci, invitedBy string) error {
	if err := s.teams.Join(ctx, name, ci, invitedBy); err != nil {
		return err
	}
	s.auditTeamChange(ci, name, "joined via invite from "+invitedBy)
	return nil
}

// TeamLeave removes ci from a team (spec §6's team_leave). The owner
// cannot leave their own team.
func (s *Service) TeamLeave(ctx context.Context, name, ci string) error {
	if err := s.teams.Leave(ctx, name, ci); err != nil {
		return err
	}
	s.auditTeamChange(ci, name, "left team")
	return nil
}

// TeamDelete removes a team and all of its memberships; only the owner
// may delete it (spec §6's team_delete).
func (s *Service) TeamDelete(ctx context.Context, name, requester string) error {
	if err := s.teams.Delete(ctx, name, requester); err != nil {
		return err
	}
	s.auditTeamChange(requester, name, "team deleted")
	return nil
}

// TeamListMembers returns the member CIs of a team (spec §6's
// team_list_members).
func (s *Service) TeamListMembers(ctx context.Context, name string) ([]string, error) {
	return s.teams.ListMembers(ctx, name)
}

// TeamListForCI returns every team a CI belongs to (spec §6's
// team_list_for_ci).
func (s *Service) TeamListForCI(ctx context.Context, ci string) ([]string, error) {
	return s.teams.ListForCI(ctx, ci)
}

// auditTeamChange records a team membership change into the acting CI's
// own audit log, best-effort: an owner store that fails to open here must
// not roll back a team change that already committed to the shared
// database.
func (s *Service) auditTeamChange(actor, teamName, reason string) {
	st, err := s.ownerState(actor)
	if err != nil {
		s.logger.Warn("could not open owner state to audit team change", "actor", actor, "error", err)
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, err := st.auditLog.Append(audit.Entry{
		Kind:     audit.KindTeamChange,
		Actor:    actor,
		TargetID: teamName,
		Reason:   reason,
	}); err != nil {
		s.logger.Warn("audit append for team change failed", "actor", actor, "error", err)
	}
}

package team

import (
	"context"
	"fmt"
	"log/slog"
)

// Service implements team lifecycle operations (spec §3, §6 team_* ops).
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new team service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create creates a new team owned by ownerID.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Team, error) {
	t, err := NewTeam(name, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating team: %w", err)
	}
	return t, nil
}

// Join adds ci to the team, gated on invitedBy being the team's owner.
func (s *Service) Join(ctx context.Context, name, ci, invitedBy string) error {
	t, err := s.repo.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := t.Join(ci, invitedBy); err != nil {
		return err
	}
	if err := s.repo.AddMember(ctx, name, ci); err != nil {
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// Leave removes ci from the team. The owner cannot leave.
func (s *Service) Leave(ctx context.Context, name, ci string) error {
	t, err := s.repo.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := t.Leave(ci); err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, name, ci); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}

// Delete removes a team and all of its memberships. Only the owner may
// delete it.
func (s *Service) Delete(ctx context.Context, name, requester string) error {
	t, err := s.repo.Get(ctx, name)
	if err != nil {
		return err
	}
	if t.OwnerID != requester {
		return ErrNotOwner
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	return nil
}

// ListMembers returns the member CIs of a team.
func (s *Service) ListMembers(ctx context.Context, name string) ([]string, error) {
	return s.repo.ListMembers(ctx, name)
}

// ListForCI returns every team a CI belongs to.
func (s *Service) ListForCI(ctx context.Context, ci string) ([]string, error) {
	return s.repo.ListForCI(ctx, ci)
}

// IsMember reports whether ci is a member of the named team, tolerating a
// missing team as "not a member" so callers using this as a record.TeamMembership
// implementation never need special-case NotFound.
func (s *Service) IsMember(teamName, ci string) bool {
	members, err := s.repo.ListMembers(context.Background(), teamName)
	if err != nil {
		return false
	}
	for _, m := range members {
		if m == ci {
			return true
		}
	}
	return false
}

package team

import "context"

// Repository persists teams and their memberships.
type Repository interface {
	Create(ctx context.Context, t *Team) error
	Get(ctx context.Context, name string) (*Team, error)
	Delete(ctx context.Context, name string) error
	AddMember(ctx context.Context, name, ci string) error
	RemoveMember(ctx context.Context, name, ci string) error
	ListMembers(ctx context.Context, name string) ([]string, error)
	ListForCI(ctx context.Context, ci string) ([]string, error)
}

package auth

import (
	"context"

	"clinic/internal/domain"
	"clinic/internal/tenant"
)

// UserRepositoryInterface — only the methods auth service uses
type UserRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type MembershipRepositoryInterface interface {
	GetByUserAndOrg(ctx context.Context, userID string, orgID tenant.OrgID) (*domain.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Membership, error)
}

// SessionLedger is the token ledger as seen by login and logout.
type SessionLedger interface {
	Issue(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

package org

import (
	"context"

	"clinic/internal/domain"
	"clinic/internal/tenant"
)

type OrganizationRepositoryInterface interface {
	Create(ctx context.Context, org *domain.Organization, ownerID string) error
	GetByID(ctx context.Context, id tenant.OrgID) (*domain.Organization, error)
}

type MembershipRepositoryInterface interface {
	Create(ctx context.Context, m *domain.Membership) error
}

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

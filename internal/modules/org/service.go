package org

import (
	"context"
	"errors"
	"strings"

	"clinic/internal/domain"
	"clinic/internal/repository"
	"clinic/internal/tenant"

	"gorm.io/gorm"
)

type Service struct {
	orgs    OrganizationRepositoryInterface
	members MembershipRepositoryInterface
	users   UserReader
}

func NewService(orgs OrganizationRepositoryInterface, members MembershipRepositoryInterface, users UserReader) *Service {
	return &Service{orgs: orgs, members: members, users: users}
}

// CreateOrg creates an organization with a fresh id and makes ownerID its owner.
func (s *Service) CreateOrg(ctx context.Context, ownerID string, req CreateOrgRequest) (*domain.Organization, error) {
	org := &domain.Organization{
		ID:   tenant.NewOrgID(),
		Name: strings.TrimSpace(req.Name),
	}
	if err := s.orgs.Create(ctx, org, ownerID); err != nil {
		return nil, err
	}
	return org, nil
}

// GetCurrent loads the organization the request was admitted for.
func (s *Service) GetCurrent(ctx context.Context, orgID tenant.OrgID) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	return org, nil
}

func (s *Service) AddMember(ctx context.Context, orgID tenant.OrgID, req AddMemberRequest) (*domain.Membership, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	m := &domain.Membership{
		UserID: user.ID,
		OrgID:  orgID,
		Role:   domain.Role(req.Role),
	}
	if err := s.members.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicateMembership) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return m, nil
}

package org

import (
	"context"
	"testing"

	"clinic/internal/database/dbtest"
	"clinic/internal/domain"
	"clinic/internal/repository"
	"clinic/internal/tenant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *Service
	users   *repository.UserRepository
	members *repository.MembershipRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		users:   repository.NewUserRepository(db),
		members: repository.NewMembershipRepository(db),
	}
	f.svc = NewService(repository.NewOrganizationRepository(db), f.members, f.users)
	return f
}

func TestCreateOrg_CallerBecomesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.svc.CreateOrg(ctx, "u1", CreateOrgRequest{Name: "  North Clinic "})
	require.NoError(t, err)
	assert.Equal(t, "North Clinic", org.Name)

	// The generated id passes the same check incoming tenant ids do.
	parsed, err := tenant.ParseOrgID(org.ID.String())
	require.NoError(t, err)
	assert.Equal(t, org.ID, parsed)

	m, err := f.members.GetByUserAndOrg(ctx, "u1", org.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, domain.RoleOwner, m.Role)
}

func TestGetCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.svc.CreateOrg(ctx, "u1", CreateOrgRequest{Name: "North Clinic"})
	require.NoError(t, err)

	got, err := f.svc.GetCurrent(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.ID)

	_, err = f.svc.GetCurrent(ctx, tenant.NewOrgID())
	assert.ErrorIs(t, err, ErrOrgNotFound)
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.svc.CreateOrg(ctx, "owner", CreateOrgRequest{Name: "North Clinic"})
	require.NoError(t, err)
	nurse := &domain.User{Email: "nurse@clinic.test", Name: "Nurse", PasswordHash: "x"}
	require.NoError(t, f.users.Create(ctx, nurse))

	m, err := f.svc.AddMember(ctx, org.ID, AddMemberRequest{Email: "Nurse@Clinic.test", Role: "member"})
	require.NoError(t, err)
	assert.Equal(t, nurse.ID, m.UserID)
	assert.Equal(t, domain.RoleMember, m.Role)

	_, err = f.svc.AddMember(ctx, org.ID, AddMemberRequest{Email: "nurse@clinic.test", Role: "admin"})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = f.svc.AddMember(ctx, org.ID, AddMemberRequest{Email: "ghost@clinic.test", Role: "member"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

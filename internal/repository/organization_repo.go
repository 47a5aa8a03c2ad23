package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic/internal/domain"
	"clinic/internal/tenant"

	"gorm.io/gorm"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

type organizationModel struct {
	ID        string    `gorm:"column:id;size:36;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (organizationModel) TableName() string { return "organizations" }

type membershipModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;size:64;not null;uniqueIndex:idx_memberships_user_org"`
	OrgID     string    `gorm:"column:org_id;size:36;not null;uniqueIndex:idx_memberships_user_org;index"`
	Role      string    `gorm:"column:role;size:16;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (membershipModel) TableName() string { return "memberships" }

// Models lists the gorm models owned by this package, for AutoMigrate in tests.
func Models() []any {
	return []any{&domain.User{}, &domain.SessionToken{}, &organizationModel{}, &membershipModel{}}
}

// Create inserts the organization and its owner membership in one transaction.
func (r *OrganizationRepository) Create(ctx context.Context, org *domain.Organization, ownerID string) error {
	if org.ID.IsZero() {
		return errors.New("organization id is required")
	}
	// Same check the resolver applies to incoming ids.
	if _, err := tenant.ParseOrgID(org.ID.String()); err != nil {
		return err
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&organizationModel{ID: org.ID.String(), Name: org.Name, CreatedAt: org.CreatedAt}).Error; err != nil {
			return err
		}
		return tx.Create(&membershipModel{
			UserID:    ownerID,
			OrgID:     org.ID.String(),
			Role:      string(domain.RoleOwner),
			CreatedAt: org.CreatedAt,
		}).Error
	})
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id tenant.OrgID) (*domain.Organization, error) {
	var m organizationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&m).Error; err != nil {
		return nil, err
	}
	orgID, err := tenant.ParseOrgID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("stored organization %q: %w", m.ID, err)
	}
	return &domain.Organization{ID: orgID, Name: m.Name, CreatedAt: m.CreatedAt}, nil
}

// ErrDuplicateMembership is returned when the user already belongs to the organization.
var ErrDuplicateMembership = errors.New("membership already exists")

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	row := membershipModel{UserID: m.UserID, OrgID: m.OrgID.String(), Role: string(m.Role), CreatedAt: m.CreatedAt}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	m.ID = row.ID
	return nil
}

// GetByUserAndOrg returns nil, nil when the user is not a member of the organization.
func (r *MembershipRepository) GetByUserAndOrg(ctx context.Context, userID string, orgID tenant.OrgID) (*domain.Membership, error) {
	var row membershipModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND org_id = ?", userID, orgID.String()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainMembership(row)
}

func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	var rows []membershipModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Membership, 0, len(rows))
	for _, row := range rows {
		m, err := toDomainMembership(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func toDomainMembership(row membershipModel) (*domain.Membership, error) {
	orgID, err := tenant.ParseOrgID(row.OrgID)
	if err != nil {
		return nil, fmt.Errorf("stored membership %d: %w", row.ID, err)
	}
	return &domain.Membership{
		ID:        row.ID,
		UserID:    row.UserID,
		OrgID:     orgID,
		Role:      domain.Role(row.Role),
		CreatedAt: row.CreatedAt,
	}, nil
}

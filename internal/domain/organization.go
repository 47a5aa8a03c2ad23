package domain

import (
	"time"

	"clinic/internal/tenant"
)

type Organization struct {
	ID        tenant.OrgID `json:"id"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership links a user to an organization with a role.
type Membership struct {
	ID        int64        `json:"id"`
	UserID    string       `json:"user_id"`
	OrgID     tenant.OrgID `json:"org_id"`
	Role      Role         `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
}

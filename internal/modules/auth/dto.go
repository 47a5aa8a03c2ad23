package auth

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OrgID    string `json:"org_id" validate:"omitempty,orgid"`
}

type UserPublic struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type MembershipPublic struct {
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
}

type SessionResponse struct {
	User        UserPublic         `json:"user"`
	TokenID     string             `json:"token_id"`
	Memberships []MembershipPublic `json:"memberships"`
}

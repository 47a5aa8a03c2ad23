package domain

import "time"

// SessionToken is one ledger row per issued session.
//
// Rows are never deleted: revocation flips IsRevoked once and stamps RevokedAt,
// and the row stays behind as the audit trail.
type SessionToken struct {
	ID int64 `json:"-" gorm:"primaryKey"`

	TokenID string `json:"token_id" gorm:"size:64;uniqueIndex;not null"`
	UserID  string `json:"user_id" gorm:"size:64;index;not null"`

	IsRevoked bool       `json:"is_revoked" gorm:"not null;default:false"`
	CreatedAt time.Time  `json:"created_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (SessionToken) TableName() string { return "session_tokens" }

func (t *SessionToken) Active() bool {
	return !t.IsRevoked
}

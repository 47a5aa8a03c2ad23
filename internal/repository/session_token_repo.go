package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateTokenID is returned by Create when token_id already exists.
var ErrDuplicateTokenID = errors.New("duplicate token id")

// SessionTokenRepository provides DB access for the session token ledger.
type SessionTokenRepository struct {
	db *gorm.DB
}

func NewSessionTokenRepository(db *gorm.DB) *SessionTokenRepository {
	return &SessionTokenRepository{db: db}
}

func (r *SessionTokenRepository) Create(ctx context.Context, t *domain.SessionToken) error {
	err := r.db.WithContext(ctx).Create(t).Error
	if isUniqueViolation(err) {
		return ErrDuplicateTokenID
	}
	return err
}

// Lookup returns nil, nil when no row has the given token id.
func (r *SessionTokenRepository) Lookup(ctx context.Context, tokenID string) (*domain.SessionToken, error) {
	var t domain.SessionToken
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke flags a single token. Already revoked or unknown ids match no row.
func (r *SessionTokenRepository) Revoke(ctx context.Context, tokenID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.SessionToken{}).
		Where("token_id = ? AND is_revoked = ?", tokenID, false).
		Updates(map[string]any{"is_revoked": true, "revoked_at": at.UTC()}).Error
}

func (r *SessionTokenRepository) RevokeByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.SessionToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Updates(map[string]any{"is_revoked": true, "revoked_at": at.UTC()})
	return res.RowsAffected, res.Error
}

func (r *SessionTokenRepository) RevokeIssuedBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.SessionToken{}).
		Where("created_at < ? AND is_revoked = ?", cutoff.UTC(), false).
		Updates(map[string]any{"is_revoked": true, "revoked_at": at.UTC()})
	return res.RowsAffected, res.Error
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic/internal/domain"
	"clinic/internal/metrics"
	"clinic/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxIssueAttempts = 3

var (
	// ErrStorage marks every failure of the backing store. Callers must treat it
	// as a rejection, never as an allow.
	ErrStorage = errors.New("token ledger storage failure")

	ErrEmptyUserID = errors.New("user id is required")
)

// Store is the durable backend behind the ledger. Lookup returns nil, nil for
// unknown token ids and Create returns repository.ErrDuplicateTokenID on an id
// collision.
type Store interface {
	Create(ctx context.Context, t *domain.SessionToken) error
	Lookup(ctx context.Context, tokenID string) (*domain.SessionToken, error)
	Revoke(ctx context.Context, tokenID string, at time.Time) error
	RevokeByUser(ctx context.Context, userID string, at time.Time) (int64, error)
	RevokeIssuedBefore(ctx context.Context, cutoff, at time.Time) (int64, error)
}

// Ledger records issued session tokens and their revocation state. It keeps no
// copy of revocation state in memory: every IsActive call reads the store.
type Ledger struct {
	store   Store
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Ledger)

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

func New(store Store, log *zap.Logger, opts ...Option) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Ledger{
		store: store,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Issue persists a fresh, non-revoked entry for userID and returns its token id.
func (l *Ledger) Issue(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrEmptyUserID
	}

	started := time.Now()
	var err error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		entry := &domain.SessionToken{
			TokenID:   l.newID(),
			UserID:    userID,
			CreatedAt: l.now().UTC(),
		}
		err = l.store.Create(ctx, entry)
		if err == nil {
			l.metrics.RecordLedger("issue", started, nil)
			return entry.TokenID, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTokenID) {
			break
		}
		l.log.Warn("token id collision, regenerating", zap.Int("attempt", attempt))
	}

	l.metrics.RecordLedger("issue", started, err)
	l.log.Error("ledger issue failed", zap.String("user_id", userID), zap.Error(err))
	return "", storageError("issue", err)
}

// IsActive reports whether tokenID was issued and never revoked. Unknown ids are
// inactive; only a store failure returns an error.
func (l *Ledger) IsActive(ctx context.Context, tokenID string) (bool, error) {
	if strings.TrimSpace(tokenID) == "" {
		return false, nil
	}

	started := time.Now()
	entry, err := l.store.Lookup(ctx, tokenID)
	l.metrics.RecordLedger("lookup", started, err)
	if err != nil {
		l.log.Error("ledger lookup failed", zap.Error(err))
		return false, storageError("lookup", err)
	}
	if entry == nil {
		return false, nil
	}
	return entry.Active(), nil
}

// Revoke marks tokenID revoked. Revoking twice, or revoking an unknown id, is a no-op.
func (l *Ledger) Revoke(ctx context.Context, tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return nil
	}

	started := time.Now()
	err := l.store.Revoke(ctx, tokenID, l.now())
	l.metrics.RecordLedger("revoke", started, err)
	if err != nil {
		l.log.Error("ledger revoke failed", zap.Error(err))
		return storageError("revoke", err)
	}
	return nil
}

// RevokeAllForUser revokes every still-active token of userID and returns how many
// rows changed.
func (l *Ledger) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrEmptyUserID
	}

	started := time.Now()
	n, err := l.store.RevokeByUser(ctx, userID, l.now())
	l.metrics.RecordLedger("revoke_user", started, err)
	if err != nil {
		l.log.Error("ledger revoke by user failed", zap.String("user_id", userID), zap.Error(err))
		return 0, storageError("revoke_user", err)
	}
	l.log.Info("revoked all sessions", zap.String("user_id", userID), zap.Int64("count", n))
	return n, nil
}

// RevokeIssuedBefore revokes every active token created before cutoff.
func (l *Ledger) RevokeIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	started := time.Now()
	n, err := l.store.RevokeIssuedBefore(ctx, cutoff, l.now())
	l.metrics.RecordLedger("revoke_before", started, err)
	if err != nil {
		l.log.Error("ledger sweep failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, storageError("revoke_before", err)
	}
	return n, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clinic/internal/database/dbtest"
	"clinic/internal/domain"
	"clinic/internal/metrics"
	"clinic/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// backends runs a test body against every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"sql":   repository.NewSessionTokenRepository(dbtest.Open(t)),
		"redis": NewRedisStore(client),
	}
}

func TestLedger_IssueThenRevoke(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := New(store, zap.NewNop())

			tokenID, err := l.Issue(ctx, "u1")
			require.NoError(t, err)
			require.NotEmpty(t, tokenID)

			active, err := l.IsActive(ctx, tokenID)
			require.NoError(t, err)
			assert.True(t, active)

			for i := 0; i < 3; i++ {
				require.NoError(t, l.Revoke(ctx, tokenID))
				active, err = l.IsActive(ctx, tokenID)
				require.NoError(t, err)
				assert.False(t, active)
			}
		})
	}
}

func TestLedger_UnknownTokenIsInactive(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := New(store, zap.NewNop())

			active, err := l.IsActive(ctx, "never-issued")
			require.NoError(t, err)
			assert.False(t, active)

			assert.NoError(t, l.Revoke(ctx, "never-issued"))

			active, err = l.IsActive(ctx, "never-issued")
			require.NoError(t, err)
			assert.False(t, active)
		})
	}
}

func TestLedger_RevokedAtSetOnlyOnce(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			l := New(store, zap.NewNop(), WithClock(func() time.Time { return clock }))

			tokenID, err := l.Issue(ctx, "u1")
			require.NoError(t, err)

			clock = clock.Add(time.Minute)
			require.NoError(t, l.Revoke(ctx, tokenID))
			first := clock

			clock = clock.Add(time.Hour)
			require.NoError(t, l.Revoke(ctx, tokenID))

			entry, err := store.Lookup(ctx, tokenID)
			require.NoError(t, err)
			require.NotNil(t, entry)
			require.NotNil(t, entry.RevokedAt)
			assert.True(t, entry.RevokedAt.Equal(first))
			assert.Equal(t, "u1", entry.UserID)
		})
	}
}

func TestLedger_IssueProducesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := New(store, zap.NewNop())
			seen := make(map[string]bool)
			for i := 0; i < 20; i++ {
				id, err := l.Issue(ctx, fmt.Sprintf("u%d", i%3))
				require.NoError(t, err)
				assert.False(t, seen[id], "duplicate token id %s", id)
				seen[id] = true
			}
		})
	}
}

func TestLedger_IssueRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ids := []string{"fixed", "fixed", "fresh"}
			next := 0
			l := New(store, zap.NewNop(), WithIDGenerator(func() string {
				id := ids[next]
				next++
				return id
			}))

			first, err := l.Issue(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "fixed", first)

			second, err := l.Issue(ctx, "u2")
			require.NoError(t, err)
			assert.Equal(t, "fresh", second)
		})
	}
}

func TestLedger_IssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	store := repository.NewSessionTokenRepository(dbtest.Open(t))
	l := New(store, zap.NewNop(), WithIDGenerator(func() string { return "same" }))

	_, err := l.Issue(ctx, "u1")
	require.NoError(t, err)

	_, err = l.Issue(ctx, "u1")
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, repository.ErrDuplicateTokenID)
}

func TestLedger_IssueRequiresUser(t *testing.T) {
	l := New(new(mockStore), zap.NewNop())

	_, err := l.Issue(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestLedger_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := New(store, zap.NewNop())

			a1, err := l.Issue(ctx, "alice")
			require.NoError(t, err)
			a2, err := l.Issue(ctx, "alice")
			require.NoError(t, err)
			b1, err := l.Issue(ctx, "bob")
			require.NoError(t, err)
			require.NoError(t, l.Revoke(ctx, a2))

			n, err := l.RevokeAllForUser(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			for id, want := range map[string]bool{a1: false, a2: false, b1: true} {
				active, err := l.IsActive(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, want, active, id)
			}
		})
	}
}

func TestLedger_RevokeIssuedBefore(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			l := New(store, zap.NewNop(), WithClock(func() time.Time { return clock }))

			old, err := l.Issue(ctx, "u1")
			require.NoError(t, err)
			clock = clock.Add(48 * time.Hour)
			recent, err := l.Issue(ctx, "u1")
			require.NoError(t, err)

			n, err := l.RevokeIssuedBefore(ctx, clock.Add(-24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			active, err := l.IsActive(ctx, old)
			require.NoError(t, err)
			assert.False(t, active)

			active, err = l.IsActive(ctx, recent)
			require.NoError(t, err)
			assert.True(t, active)
		})
	}
}

func TestLedger_ConcurrentRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := New(store, zap.NewNop())
			tokenID, err := l.Issue(ctx, "u1")
			require.NoError(t, err)

			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- l.Revoke(ctx, tokenID)
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				assert.NoError(t, err)
			}

			active, err := l.IsActive(ctx, tokenID)
			require.NoError(t, err)
			assert.False(t, active)
		})
	}
}

func TestLedger_ReadsStoreEveryTime(t *testing.T) {
	store := new(mockStore)
	l := New(store, zap.NewNop())
	ctx := context.Background()

	store.On("Lookup", mock.Anything, "t1").Return(&domain.SessionToken{TokenID: "t1", UserID: "u1"}, nil).Once()
	store.On("Lookup", mock.Anything, "t1").Return(&domain.SessionToken{TokenID: "t1", UserID: "u1", IsRevoked: true}, nil).Once()

	active, err := l.IsActive(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = l.IsActive(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, active)

	store.AssertNumberOfCalls(t, "Lookup", 2)
}

func TestLedger_StorageFailuresFailClosed(t *testing.T) {
	boom := errors.New("connection refused")
	store := new(mockStore)
	store.On("Lookup", mock.Anything, mock.Anything).Return(nil, boom)
	store.On("Create", mock.Anything, mock.Anything).Return(boom)
	store.On("Revoke", mock.Anything, mock.Anything, mock.Anything).Return(boom)
	store.On("RevokeByUser", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), boom)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	l := New(store, zap.NewNop(), WithMetrics(m))
	ctx := context.Background()

	active, err := l.IsActive(ctx, "t1")
	assert.False(t, active)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, boom)

	_, err = l.Issue(ctx, "u1")
	assert.ErrorIs(t, err, ErrStorage)

	assert.ErrorIs(t, l.Revoke(ctx, "t1"), ErrStorage)

	_, err = l.RevokeAllForUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrStorage)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("lookup", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("issue", "error")))
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, t *domain.SessionToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockStore) Lookup(ctx context.Context, tokenID string) (*domain.SessionToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionToken), args.Error(1)
}

func (m *mockStore) Revoke(ctx context.Context, tokenID string, at time.Time) error {
	args := m.Called(ctx, tokenID, at)
	return args.Error(0)
}

func (m *mockStore) RevokeByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) RevokeIssuedBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	args := m.Called(ctx, cutoff, at)
	return args.Get(0).(int64), args.Error(1)
}

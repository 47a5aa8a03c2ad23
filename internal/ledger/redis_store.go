package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"clinic/internal/domain"
	"clinic/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "ledger:token:"
	userKeyPrefix  = "ledger:user:"
	issuedKey      = "ledger:issued"
)

// createScript inserts the token hash only when the id is unused and indexes it
// by user and by issue time.
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "user_id", ARGV[1], "is_revoked", "0", "created_at", ARGV[2])
redis.call("SADD", KEYS[2], ARGV[3])
redis.call("ZADD", KEYS[3], ARGV[2], ARGV[3])
return 1
`)

// revokeScript flips is_revoked once; later calls leave revoked_at untouched.
var revokeScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "is_revoked") == "0" then
  redis.call("HSET", KEYS[1], "is_revoked", "1", "revoked_at", ARGV[1])
  return 1
end
return 0
`)

// RedisStore keeps the ledger in Redis. Entries have no TTL: like the SQL store,
// revoked rows stay behind.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient connects and pings, mirroring the SQL connect step at startup.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Create(ctx context.Context, t *domain.SessionToken) error {
	created := t.CreatedAt.UTC().UnixNano()
	res, err := createScript.Run(ctx, s.client,
		[]string{tokenKeyPrefix + t.TokenID, userKeyPrefix + t.UserID, issuedKey},
		t.UserID, created, t.TokenID,
	).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return repository.ErrDuplicateTokenID
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, tokenID string) (*domain.SessionToken, error) {
	fields, err := s.client.HGetAll(ctx, tokenKeyPrefix+tokenID).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	createdNanos, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ledger entry %s: bad created_at: %w", tokenID, err)
	}
	t := &domain.SessionToken{
		TokenID:   tokenID,
		UserID:    fields["user_id"],
		IsRevoked: fields["is_revoked"] != "0",
		CreatedAt: time.Unix(0, createdNanos).UTC(),
	}
	if v, ok := fields["revoked_at"]; ok {
		nanos, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			at := time.Unix(0, nanos).UTC()
			t.RevokedAt = &at
		}
	}
	return t, nil
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID string, at time.Time) error {
	_, err := s.revoke(ctx, tokenID, at)
	return err
}

func (s *RedisStore) RevokeByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	ids, err := s.client.SMembers(ctx, userKeyPrefix+userID).Result()
	if err != nil {
		return 0, err
	}
	return s.revokeAll(ctx, ids, at)
}

func (s *RedisStore) RevokeIssuedBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	ids, err := s.client.ZRangeByScore(ctx, issuedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UTC().UnixNano(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	return s.revokeAll(ctx, ids, at)
}

func (s *RedisStore) revokeAll(ctx context.Context, ids []string, at time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		changed, err := s.revoke(ctx, id, at)
		if err != nil {
			return n, err
		}
		if changed {
			n++
		}
	}
	return n, nil
}

func (s *RedisStore) revoke(ctx context.Context, tokenID string, at time.Time) (bool, error) {
	res, err := revokeScript.Run(ctx, s.client, []string{tokenKeyPrefix + tokenID}, at.UTC().UnixNano()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

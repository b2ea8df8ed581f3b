package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"minifeed/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps opaque session tokens in Redis. A zero TTL keeps a
// session until logout.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore returns a Redis-backed Store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *RedisStore) Backend() string { return "redis" }

func (s *RedisStore) Create(ctx context.Context, userID uint, username string) (sess *Session, err error) {
	defer func() { observability.SessionOps.WithLabelValues(s.Backend(), "create", observability.Result(err)).Inc() }()

	sess = &Session{
		Token:    uuid.NewString(),
		UserID:   userID,
		Username: username,
		IssuedAt: s.now(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.Token, payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	raw, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		observability.SessionOps.WithLabelValues(s.Backend(), "lookup", "error").Inc()
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess.Token = token
	return &sess, nil
}

func (s *RedisStore) Destroy(ctx context.Context, token string) (err error) {
	defer func() { observability.SessionOps.WithLabelValues(s.Backend(), "destroy", observability.Result(err)).Inc() }()

	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"minifeed/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "minifeed-api"
	tokenAudience = "minifeed-client"
)

// Revoker remembers logged-out token IDs until the token would have expired
// anyway. A zero until means forever.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTStore issues self-contained HS256 tokens. Only revocations are stored.
type JWTStore struct {
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

// NewJWTStore returns a JWT-backed Store. A zero ttl issues tokens without exp.
func NewJWTStore(secret string, ttl time.Duration, revoker Revoker) *JWTStore {
	return &JWTStore{
		secret:  []byte(secret),
		ttl:     ttl,
		revoker: revoker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *JWTStore) Backend() string { return "jwt" }

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}

func (s *JWTStore) Create(_ context.Context, userID uint, username string) (sess *Session, err error) {
	defer func() { observability.SessionOps.WithLabelValues(s.Backend(), "create", observability.Result(err)).Inc() }()

	now := s.now()
	claims := tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateJTI(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: signed, UserID: userID, Username: username, IssuedAt: now}, nil
}

func (s *JWTStore) parse(token string, opts ...jwt.ParserOption) (*tokenClaims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("token missing jti or sub")
	}
	return claims, nil
}

func (s *JWTStore) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	claims, err := s.parse(token)
	if err != nil {
		return nil, ErrNotFound
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		observability.SessionOps.WithLabelValues(s.Backend(), "lookup", "error").Inc()
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrNotFound
	}

	sess := &Session{Token: token, UserID: uint(userID), Username: claims.Username}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	return sess, nil
}

func (s *JWTStore) Destroy(ctx context.Context, token string) (err error) {
	defer func() { observability.SessionOps.WithLabelValues(s.Backend(), "destroy", observability.Result(err)).Inc() }()

	if token == "" {
		return nil
	}
	claims, err := s.parse(token)
	if err != nil {
		// Invalid or already expired: nothing left to revoke.
		return nil
	}
	var until time.Time
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.revoker.Revoke(ctx, claims.ID, until)
}

// RedisRevoker stores revoked token IDs as "blacklist:<jti>" keys that expire
// with the token.
type RedisRevoker struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRevoker returns a Revoker backed by Redis.
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	var ttl time.Duration
	if !until.IsZero() {
		ttl = until.Sub(r.now())
		if ttl <= 0 {
			return nil
		}
	}
	return r.client.Set(ctx, "blacklist:"+jti, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, "blacklist:"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevoker keeps revocations in process memory for single-node
// deployments without Redis. Revocations are lost on restart.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker returns an empty in-process Revoker.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *MemoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.revoked {
		if !exp.IsZero() && exp.Before(now) {
			delete(r.revoked, id)
		}
	}
	r.revoked[jti] = until
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

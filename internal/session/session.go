// Package session keeps the ephemeral token -> user mapping outside the
// relational store.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Lookup for unknown, expired or revoked tokens.
var ErrNotFound = errors.New("session not found")

// Session is what a token resolves to.
type Session struct {
	Token    string    `json:"-"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store creates, resolves and destroys sessions.
type Store interface {
	Create(ctx context.Context, userID uint, username string) (*Session, error)
	Lookup(ctx context.Context, token string) (*Session, error)
	// Destroy is idempotent; unknown tokens are not an error.
	Destroy(ctx context.Context, token string) error
	// Backend names the implementation for logs and metrics.
	Backend() string
}

// Package auth resolves request identities and decides which operations an
// identity may perform under the configured auth mode.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"minifeed/internal/config"
	"minifeed/internal/models"
	"minifeed/internal/observability"
	"minifeed/internal/session"
)

// Operation names a mutating action subject to the gate.
type Operation string

const (
	OpCreatePost    Operation = "create_post"
	OpAddComment    Operation = "add_comment"
	OpLike          Operation = "like"
	OpRepost        Operation = "repost"
	OpUpdateProfile Operation = "update_profile"
)

// Policy declares what an operation needs from the caller.
type Policy struct {
	// RequiresSession holds in every mode (ownership checks).
	RequiresSession bool
	// NeedsAuthor means an open-mode anonymous caller must supply a name.
	NeedsAuthor bool
}

var policies = map[Operation]Policy{
	OpCreatePost:    {NeedsAuthor: true},
	OpAddComment:    {NeedsAuthor: true},
	OpLike:          {},
	OpRepost:        {NeedsAuthor: true},
	OpUpdateProfile: {RequiresSession: true},
}

// PolicyFor returns the declared policy of op.
func PolicyFor(op Operation) (Policy, bool) {
	p, ok := policies[op]
	return p, ok
}

// Identity is the resolved caller. The zero value is Anonymous.
type Identity struct {
	UserID   uint
	Username string
	Token    string
}

// Anonymous is the unauthenticated identity.
var Anonymous = Identity{}

// Authenticated reports whether the identity came from a live session.
func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

// Verifier checks credentials. Implemented by the identity service.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*models.User, error)
}

// Gate moves callers between Anonymous and Authenticated and authorizes operations.
type Gate struct {
	mode     string
	verifier Verifier
	sessions session.Store
}

// NewGate builds a gate for mode (config.AuthModeGated or config.AuthModeOpen).
func NewGate(mode string, verifier Verifier, sessions session.Store) (*Gate, error) {
	if mode != config.AuthModeGated && mode != config.AuthModeOpen {
		return nil, fmt.Errorf("unsupported auth mode %q", mode)
	}
	return &Gate{mode: mode, verifier: verifier, sessions: sessions}, nil
}

// Mode returns the configured auth mode.
func (g *Gate) Mode() string { return g.mode }

// Open reports whether anonymous callers may act under a free-text name.
func (g *Gate) Open() bool { return g.mode == config.AuthModeOpen }

// Login verifies credentials and opens a session.
func (g *Gate) Login(ctx context.Context, username, password string) (Identity, error) {
	user, err := g.verifier.Verify(ctx, username, password)
	if err != nil {
		observability.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return Anonymous, err
	}
	observability.AuthAttempts.WithLabelValues("login", "success").Inc()
	return g.StartSession(ctx, user)
}

// StartSession opens a session for an already verified user.
func (g *Gate) StartSession(ctx context.Context, user *models.User) (Identity, error) {
	sess, err := g.sessions.Create(ctx, user.ID, user.Username)
	if err != nil {
		return Anonymous, models.NewInternalError(err)
	}
	return Identity{UserID: sess.UserID, Username: sess.Username, Token: sess.Token}, nil
}

// Logout destroys the session behind token. Unknown tokens are a no-op.
func (g *Gate) Logout(ctx context.Context, token string) error {
	if err := g.sessions.Destroy(ctx, token); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Resolve maps a token to an identity. Missing, unknown, expired and revoked
// tokens resolve to Anonymous; only a store failure is an error.
func (g *Gate) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Anonymous, nil
	}
	sess, err := g.sessions.Lookup(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return Anonymous, nil
	}
	if err != nil {
		observability.L().ErrorContext(ctx, "session lookup failed",
			slog.String("backend", g.sessions.Backend()),
			slog.String("error", err.Error()),
		)
		return Anonymous, models.NewInternalError(err)
	}
	return Identity{UserID: sess.UserID, Username: sess.Username, Token: token}, nil
}

// Authorize decides whether id may perform op and returns the author the
// operation is attributed to. claimedName is only consulted for anonymous
// callers in open mode.
func (g *Gate) Authorize(id Identity, op Operation, claimedName string) (models.Author, error) {
	policy, ok := policies[op]
	if !ok {
		return models.Author{}, fmt.Errorf("unknown operation %q", op)
	}

	if id.Authenticated() {
		userID := id.UserID
		return models.Author{ID: &userID, Username: id.Username}, nil
	}

	if policy.RequiresSession || !g.Open() {
		return models.Author{}, models.NewUnauthorizedError("Login required to " + strings.ReplaceAll(string(op), "_", " "))
	}

	name := strings.TrimSpace(claimedName)
	if policy.NeedsAuthor && name == "" {
		return models.Author{}, models.NewValidationError("Author name is required")
	}
	return models.Author{Username: name}, nil
}

// AuthorizeOwner additionally requires id to be the owner of userID.
func (g *Gate) AuthorizeOwner(id Identity, op Operation, userID uint) (models.Author, error) {
	author, err := g.Authorize(id, op, "")
	if err != nil {
		return author, err
	}
	if author.ID == nil || *author.ID != userID {
		return models.Author{}, models.NewForbiddenError("You can only modify your own profile")
	}
	return author, nil
}

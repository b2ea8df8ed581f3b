package auth

import (
	"context"
	"testing"

	"minifeed/internal/config"
	"minifeed/internal/models"
	"minifeed/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	VerifyFn func(ctx context.Context, username, password string) (*models.User, error)
}

func (s *stubVerifier) Verify(ctx context.Context, username, password string) (*models.User, error) {
	return s.VerifyFn(ctx, username, password)
}

func aliceVerifier() *stubVerifier {
	return &stubVerifier{VerifyFn: func(_ context.Context, username, password string) (*models.User, error) {
		if username == "alice" && password == "pw123" {
			return &models.User{ID: 1, Username: "alice"}, nil
		}
		return nil, models.NewAuthFailureError()
	}}
}

func newGate(t *testing.T, mode string) (*Gate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gate, err := NewGate(mode, aliceVerifier(), session.NewRedisStore(client, 0))
	require.NoError(t, err)
	return gate, mr
}

func TestNewGate_RejectsUnknownMode(t *testing.T) {
	_, err := NewGate("sometimes", aliceVerifier(), nil)
	assert.Error(t, err)
}

func TestGate_LoginResolveLogout(t *testing.T) {
	gate, _ := newGate(t, config.AuthModeGated)
	ctx := context.Background()

	id, err := gate.Login(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.True(t, id.Authenticated())
	assert.NotEmpty(t, id.Token)

	resolved, err := gate.Resolve(ctx, id.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), resolved.UserID)
	assert.Equal(t, "alice", resolved.Username)

	require.NoError(t, gate.Logout(ctx, id.Token))
	resolved, err = gate.Resolve(ctx, id.Token)
	require.NoError(t, err)
	assert.False(t, resolved.Authenticated())

	require.NoError(t, gate.Logout(ctx, id.Token), "logging out twice is fine")
}

func TestGate_LoginFailureIsGeneric(t *testing.T) {
	gate, _ := newGate(t, config.AuthModeGated)
	ctx := context.Background()

	_, wrongPassword := gate.Login(ctx, "alice", "nope")
	_, unknownUser := gate.Login(ctx, "mallory", "pw123")

	assert.Equal(t, models.CodeAuthFailure, models.ErrorCode(wrongPassword))
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestGate_ResolveUnknownTokens(t *testing.T) {
	gate, _ := newGate(t, config.AuthModeGated)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "6f1c2a8e-0000-4000-8000-000000000000"} {
		id, err := gate.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, Anonymous, id)
	}
}

func TestGate_ResolveStoreOutage(t *testing.T) {
	gate, mr := newGate(t, config.AuthModeGated)
	mr.SetError("LOADING Redis is loading the dataset in memory")

	_, err := gate.Resolve(context.Background(), "some-token")
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
}

func TestGate_AuthorizeGated(t *testing.T) {
	gate, _ := newGate(t, config.AuthModeGated)
	alice := Identity{UserID: 1, Username: "alice", Token: "t"}

	for _, op := range []Operation{OpCreatePost, OpAddComment, OpLike, OpRepost, OpUpdateProfile} {
		t.Run(string(op), func(t *testing.T) {
			_, err := gate.Authorize(Anonymous, op, "mallory")
			assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

			author, err := gate.Authorize(alice, op, "someone-else")
			require.NoError(t, err)
			assert.Equal(t, "alice", author.Username, "the session wins over a claimed name")
			require.NotNil(t, author.ID)
			assert.Equal(t, uint(1), *author.ID)
		})
	}
}

func TestGate_AuthorizeOpen(t *testing.T) {
	gate, _ := newGate(t, config.AuthModeOpen)

	author, err := gate.Authorize(Anonymous, OpCreatePost, "  bob ")
	require.NoError(t, err)
	assert.Equal(t, "bob", author.Username)
	assert.Nil(t, author.ID)

	_, err = gate.Authorize(Anonymous, OpAddComment, "   ")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = gate.Authorize(Anonymous, OpLike, "")
	assert.NoError(t, err, "likes carry no author")

	_, err = gate.Authorize(Anonymous, OpUpdateProfile, "bob")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	alice := Identity{UserID: 1, Username: "alice"}
	author, err = gate.Authorize(alice, OpRepost, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", author.Username)
}

func TestGate_AuthorizeOwner(t *testing.T) {
	gate, _ := newGate(t, config.AuthModeOpen)
	alice := Identity{UserID: 1, Username: "alice"}

	_, err := gate.AuthorizeOwner(alice, OpUpdateProfile, 1)
	assert.NoError(t, err)

	_, err = gate.AuthorizeOwner(alice, OpUpdateProfile, 2)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	_, err = gate.AuthorizeOwner(Anonymous, OpUpdateProfile, 1)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestPolicyFor(t *testing.T) {
	p, ok := PolicyFor(OpUpdateProfile)
	require.True(t, ok)
	assert.True(t, p.RequiresSession)

	_, ok = PolicyFor(Operation("delete_everything"))
	assert.False(t, ok)
}

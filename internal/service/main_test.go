package service

import (
	"testing"

	"minifeed/internal/models"
	"minifeed/internal/repository"
	"minifeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stack wires every service against one in-memory sqlite store.
type stack struct {
	clock      *testutil.Clock
	identity   *IdentityService
	posts      *PostService
	comments   *CommentService
	engagement *EngagementService
	postRepo   repository.PostRepository
}

func newStack(t *testing.T, repostMode string, pageSize int) *stack {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	clock := testutil.NewClock()

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)

	engagement, err := NewEngagementService(posts, repostMode, clock.Now)
	require.NoError(t, err)

	return &stack{
		clock:      clock,
		identity:   NewIdentityService(users, bcrypt.MinCost, clock.Now),
		posts:      NewPostService(posts, pageSize, clock.Now),
		comments:   NewCommentService(comments, posts, clock.Now),
		engagement: engagement,
		postRepo:   posts,
	}
}

func named(username string) models.Author {
	return models.Author{Username: username}
}

func assertCode(t *testing.T, want string, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, models.ErrorCode(err), "error: %v", err)
}


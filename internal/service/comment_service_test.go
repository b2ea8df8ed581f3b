package service

import (
	"context"
	"strings"
	"testing"

	"minifeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_AddComment_Validation(t *testing.T) {
	t.Parallel()

	repo := noopCommentRepo()
	repo.createFn = func(_ context.Context, _ *models.Comment) error {
		t.Error("invalid input must not reach the repository")
		return nil
	}
	svc := NewCommentService(repo, noopPostRepo(), nil)
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		_, err := svc.AddComment(ctx, 1, named("bob"), " \n ")
		assertCode(t, models.CodeEmptyContent, err)
	})
	t.Run("too long", func(t *testing.T) {
		_, err := svc.AddComment(ctx, 1, named("bob"), strings.Repeat("c", MaxCommentLen+1))
		assertCode(t, models.CodeValidation, err)
	})
	t.Run("blank author", func(t *testing.T) {
		_, err := svc.AddComment(ctx, 1, named(""), "hi")
		assertCode(t, models.CodeValidation, err)
	})
}

func TestCommentService_SQLite(t *testing.T) {
	s := newStack(t, "", 0)
	ctx := context.Background()

	post, err := s.posts.CreatePost(ctx, named("alice"), "hello", "")
	require.NoError(t, err)

	first, err := s.comments.AddComment(ctx, post.ID, named("bob"), " nice ")
	require.NoError(t, err)
	assert.Equal(t, "nice", first.Content)
	_, err = s.comments.AddComment(ctx, post.ID, named("carol"), "agreed")
	require.NoError(t, err)

	list, err := s.comments.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "nice", list[0].Content)
	assert.Equal(t, "agreed", list[1].Content)

	_, err = s.comments.AddComment(ctx, post.ID+99, named("bob"), "lost")
	assertCode(t, models.CodeNotFound, err)

	_, err = s.comments.ListComments(ctx, post.ID+99)
	assertCode(t, models.CodeNotFound, err)

	grouped, err := s.comments.CommentsForPosts(ctx, []uint{post.ID})
	require.NoError(t, err)
	assert.Len(t, grouped[post.ID], 2)

	all, err := s.comments.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2, "a comment on a missing post never creates a row")
}

package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"minifeed/internal/models"
	"minifeed/internal/observability"
	"minifeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const MaxCommentLen = 10000

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	now      Clock
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, clock Clock) *CommentService {
	return &CommentService{comments: comments, posts: posts, now: clockOrDefault(clock)}
}

// AddComment attaches trimmed content to postID. The post check and the
// insert share one transaction in the repository.
func (s *CommentService) AddComment(ctx context.Context, postID uint, author models.Author, content string) (comment *models.Comment, err error) {
	span, ctx := observability.NewSpan(ctx, "comment.add", attribute.Int64("post.id", int64(postID)))
	defer span.Finish(&err)

	username := strings.TrimSpace(author.Username)
	if username == "" {
		return nil, models.NewValidationError("Author is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewEmptyContentError("Comment")
	}
	if utf8.RuneCountInString(content) > MaxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment = &models.Comment{
		PostID:         postID,
		AuthorUsername: username,
		AuthorID:       author.ID,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}

// ListComments returns the post's comments oldest first, NOT_FOUND for a missing post.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

func (s *CommentService) CommentsForPosts(ctx context.Context, postIDs []uint) (map[uint][]*models.Comment, error) {
	return s.comments.ListByPosts(ctx, postIDs)
}

package service

import (
	"context"
	"iter"
	"strings"
	"unicode/utf8"

	"minifeed/internal/models"
	"minifeed/internal/observability"
	"minifeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MaxPostLen      = 5000
	DefaultPageSize = 50
)

// FeedQuery selects a window of the feed. Limit 0 means everything after Before.
type FeedQuery struct {
	Limit  int
	Before *models.FeedCursor
}

// PostService creates posts and reads the feed.
type PostService struct {
	posts    repository.PostRepository
	pageSize int
	now      Clock
}

// NewPostService reads the feed in keyset pages of pageSize rows.
func NewPostService(posts repository.PostRepository, pageSize int, clock Clock) *PostService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PostService{posts: posts, pageSize: pageSize, now: clockOrDefault(clock)}
}

// CreatePost stores trimmed content under author. A post needs text or media.
func (s *PostService) CreatePost(ctx context.Context, author models.Author, content, mediaRef string) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "post.create", attribute.String("post.author", author.Username))
	defer span.Finish(&err)

	username := strings.TrimSpace(author.Username)
	if username == "" {
		return nil, models.NewValidationError("Author is required")
	}
	content = strings.TrimSpace(content)
	mediaRef = strings.TrimSpace(mediaRef)
	if content == "" && mediaRef == "" {
		return nil, models.NewEmptyPostError()
	}
	if err := CheckPostLength(content); err != nil {
		return nil, err
	}

	post = &models.Post{
		AuthorUsername: username,
		AuthorID:       author.ID,
		Content:        content,
		MediaRef:       mediaRef,
		CreatedAt:      s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.WithLabelValues("original").Inc()
	return post, nil
}

// CheckPostLength rejects post content over MaxPostLen runes once trimmed.
func CheckPostLength(content string) error {
	if utf8.RuneCountInString(strings.TrimSpace(content)) > MaxPostLen {
		return models.NewValidationError("Content too long (max 5000 characters)")
	}
	return nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Feed yields every post newest first. Each range starts over from the
// newest post; the first error is yielded once and ends the sequence.
func (s *PostService) Feed(ctx context.Context) iter.Seq2[*models.Post, error] {
	return s.scan(ctx, repository.PostFilter{}, nil)
}

// PostsByAuthor is Feed restricted to one author's snapshot name.
func (s *PostService) PostsByAuthor(ctx context.Context, username string) iter.Seq2[*models.Post, error] {
	return s.scan(ctx, repository.PostFilter{AuthorUsername: username}, nil)
}

func (s *PostService) ListFeed(ctx context.Context, q FeedQuery) ([]*models.Post, error) {
	return s.list(ctx, repository.PostFilter{}, q)
}

func (s *PostService) ListPostsByAuthor(ctx context.Context, username string, q FeedQuery) ([]*models.Post, error) {
	return s.list(ctx, repository.PostFilter{AuthorUsername: username}, q)
}

func (s *PostService) CountPosts(ctx context.Context) (int64, error) {
	return s.posts.Count(ctx)
}

func (s *PostService) list(ctx context.Context, filter repository.PostFilter, q FeedQuery) (posts []*models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "post.list",
		attribute.Int("feed.limit", q.Limit),
		attribute.String("feed.author", filter.AuthorUsername),
	)
	defer span.Finish(&err)

	if q.Limit < 0 {
		return nil, models.NewValidationError("limit must not be negative")
	}
	if q.Limit > 0 {
		return s.posts.ListPage(ctx, filter, q.Before, q.Limit)
	}

	posts = []*models.Post{}
	for p, err := range s.scan(ctx, filter, q.Before) {
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *PostService) scan(ctx context.Context, filter repository.PostFilter, start *models.FeedCursor) iter.Seq2[*models.Post, error] {
	return func(yield func(*models.Post, error) bool) {
		cursor := start
		for {
			page, err := s.posts.ListPage(ctx, filter, cursor, s.pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, p := range page {
				if !yield(p, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			next := models.CursorOf(page[len(page)-1])
			cursor = &next
		}
	}
}

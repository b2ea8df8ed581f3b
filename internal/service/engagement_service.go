package service

import (
	"context"
	"fmt"
	"strings"

	"minifeed/internal/config"
	"minifeed/internal/models"
	"minifeed/internal/observability"
	"minifeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// RepostResult carries the original after its counter moved and, in
// materialize mode, the new post.
type RepostResult struct {
	Original *models.Post `json:"original"`
	Repost   *models.Post `json:"repost,omitempty"`
}

// EngagementService applies likes and reposts as atomic counter updates.
type EngagementService struct {
	posts repository.PostRepository
	mode  string
	now   Clock
}

func NewEngagementService(posts repository.PostRepository, repostMode string, clock Clock) (*EngagementService, error) {
	switch repostMode {
	case "":
		repostMode = config.RepostModeMaterialize
	case config.RepostModeMaterialize, config.RepostModeCounter:
	default:
		return nil, fmt.Errorf("unsupported repost mode %q", repostMode)
	}
	return &EngagementService{posts: posts, mode: repostMode, now: clockOrDefault(clock)}, nil
}

func (s *EngagementService) RepostMode() string { return s.mode }

// Like adds one like and returns the post as stored afterwards. Likes are
// not deduplicated per caller.
func (s *EngagementService) Like(ctx context.Context, postID uint) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "engagement.like", attribute.Int64("post.id", int64(postID)))
	defer span.Finish(&err)

	if err := s.posts.IncrementLikes(ctx, postID); err != nil {
		return nil, err
	}
	observability.EngagementEvents.WithLabelValues("like").Inc()
	return s.posts.GetByID(ctx, postID)
}

func (s *EngagementService) Repost(ctx context.Context, postID uint, actor models.Author) (result *RepostResult, err error) {
	span, ctx := observability.NewSpan(ctx, "engagement.repost",
		attribute.Int64("post.id", int64(postID)),
		attribute.String("repost.mode", s.mode),
	)
	defer span.Finish(&err)

	var build repository.RepostBuilder
	if s.mode == config.RepostModeMaterialize {
		username := strings.TrimSpace(actor.Username)
		if username == "" {
			return nil, models.NewValidationError("Author is required")
		}
		build = func(original *models.Post) *models.Post {
			originalID := original.ID
			return &models.Post{
				AuthorUsername: username,
				AuthorID:       actor.ID,
				Content:        repostContent(original.Content),
				MediaRef:       original.MediaRef,
				RepostOfID:     &originalID,
				CreatedAt:      s.now(),
			}
		}
	}

	original, created, err := s.posts.Repost(ctx, postID, build)
	if err != nil {
		return nil, err
	}
	observability.EngagementEvents.WithLabelValues("repost").Inc()
	if created != nil {
		observability.PostsCreated.WithLabelValues("repost").Inc()
	}
	return &RepostResult{Original: original, Repost: created}, nil
}

// repostContent prefixes the original text and cuts the result to MaxPostLen
// runes, so repost chains never outgrow a regular post.
func repostContent(content string) string {
	out := []rune(models.RepostPrefix + content)
	if len(out) > MaxPostLen {
		out = out[:MaxPostLen]
	}
	return string(out)
}

package repository

import (
	"context"
	"errors"

	"minifeed/internal/models"
	"minifeed/internal/observability"

	"gorm.io/gorm"
)

// PostFilter narrows a feed query. The zero value selects every post.
type PostFilter struct {
	AuthorUsername string
}

// RepostBuilder derives the post to insert from the original, inside the
// repost transaction. A nil builder means counter-only reposts.
type RepostBuilder func(original *models.Post) *models.Post

// PostRepository defines persistence operations for posts and their counters.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// ListPage returns up to limit posts in feed order strictly after the
	// cursor. limit <= 0 means no limit.
	ListPage(ctx context.Context, filter PostFilter, after *models.FeedCursor, limit int) ([]*models.Post, error)
	Count(ctx context.Context) (int64, error)
	IncrementLikes(ctx context.Context, id uint) error
	Repost(ctx context.Context, id uint, build RepostBuilder) (original *models.Post, created *models.Post, err error)
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "author": post.AuthorUsername})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) ListPage(ctx context.Context, filter PostFilter, after *models.FeedCursor, limit int) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.AuthorUsername != "" {
		q = q.Where("author_username = ?", filter.AuthorUsername)
	}
	if after != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var posts []*models.Post
	if err := q.Find(&posts).Error; err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, models.NewInternalError(err)
	}
	r.log.LogRead(ctx, map[string]any{"count": len(posts), "author": filter.AuthorUsername})
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// incrementCounter is a single UPDATE col = col + 1, so concurrent calls never lose increments.
func incrementCounter(tx *gorm.DB, id uint, column string) error {
	res := tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) IncrementLikes(ctx context.Context, id uint) error {
	defer observability.TrackQuery("update", "posts")()

	if err := incrementCounter(r.db.WithContext(ctx), id, "like_count"); err != nil {
		if models.ErrorCode(err) == "" {
			r.log.LogError(ctx, err, "like")
		}
		return storageError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"post_id": id, "counter": "like_count"})
	return nil
}

// Repost bumps repost_count and, when build is non-nil, inserts the derived
// post in the same transaction.
func (r *postRepository) Repost(ctx context.Context, id uint, build RepostBuilder) (*models.Post, *models.Post, error) {
	defer observability.TrackQuery("update", "posts")()

	var original models.Post
	var created *models.Post

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := incrementCounter(tx, id, "repost_count"); err != nil {
			return err
		}
		if err := tx.First(&original, id).Error; err != nil {
			return err
		}
		if build == nil {
			return nil
		}
		created = build(&original)
		return tx.Create(created).Error
	})
	if err != nil {
		if models.ErrorCode(err) == "" {
			r.log.LogError(ctx, err, "repost")
		}
		return nil, nil, storageError(err)
	}

	fields := map[string]any{"post_id": id, "counter": "repost_count"}
	if created != nil {
		fields["repost_id"] = created.ID
	}
	r.log.LogUpdate(ctx, fields)
	return &original, created, nil
}

// Package seed fills a database with demo data through the regular services,
// so seeded rows obey the same rules as API writes.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"minifeed/internal/config"
	"minifeed/internal/models"
	"minifeed/internal/observability"
	"minifeed/internal/repository"
	"minifeed/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is given to every seeded account.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	NumComments int
	// LikesPerPost is the upper bound of likes applied to each post.
	LikesPerPost int
	// RepostPercent of posts get one materialized repost.
	RepostPercent int
	MaxDays       int
	Password      string
	// SkipBcrypt hashes with the minimum cost; for tests and large runs.
	SkipBcrypt bool
	RandSeed   int64
}

// Summary counts what a run created.
type Summary struct {
	Users    int `json:"users" yaml:"users"`
	Posts    int `json:"posts" yaml:"posts"`
	Comments int `json:"comments" yaml:"comments"`
	Likes    int `json:"likes" yaml:"likes"`
	Reposts  int `json:"reposts" yaml:"reposts"`
}

// Seeder writes fake data through the identity, post, comment and engagement services.
type Seeder struct {
	opts       Options
	factory    *Factory
	identity   *service.IdentityService
	posts      *service.PostService
	comments   *service.CommentService
	engagement *service.EngagementService
	log        *slog.Logger
}

// NewSeeder binds a seeder to db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}

	events := opts.NumUsers + opts.NumPosts*2 + opts.NumComments
	clock := newSpreadClock(time.Now(), opts.MaxDays, events)

	postRepo := repository.NewPostRepository(db)
	engagement, err := service.NewEngagementService(postRepo, config.RepostModeMaterialize, clock.Now)
	if err != nil {
		return nil, err
	}

	return &Seeder{
		opts:       opts,
		factory:    NewFactory(opts.RandSeed),
		identity:   service.NewIdentityService(repository.NewUserRepository(db), cost, clock.Now),
		posts:      service.NewPostService(postRepo, 0, clock.Now),
		comments:   service.NewCommentService(repository.NewCommentRepository(db), postRepo, clock.Now),
		engagement: engagement,
		log:        observability.L().With(slog.String("component", "seed")),
	}, nil
}

// Seed creates users, then posts by random users, then comments, likes and reposts.
func (s *Seeder) Seed(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	s.log.InfoContext(ctx, "seeding started",
		slog.Int("users", s.opts.NumUsers),
		slog.Int("posts", s.opts.NumPosts),
		slog.Int("comments", s.opts.NumComments),
	)

	users, err := s.seedUsers(ctx, sum)
	if err != nil {
		return sum, err
	}
	if len(users) == 0 {
		return sum, nil
	}

	posts, err := s.seedPosts(ctx, users, sum)
	if err != nil {
		return sum, err
	}
	if err := s.seedComments(ctx, users, posts, sum); err != nil {
		return sum, err
	}
	if err := s.seedEngagement(ctx, users, posts, sum); err != nil {
		return sum, err
	}

	s.log.InfoContext(ctx, "seeding finished",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
		slog.Int("reposts", sum.Reposts),
	)
	return sum, nil
}

func (s *Seeder) seedUsers(ctx context.Context, sum *Summary) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for len(users) < s.opts.NumUsers {
		user, err := s.identity.Register(ctx, s.factory.Username(), s.opts.Password)
		if models.ErrorCode(err) == models.CodeDuplicateUsername {
			// Left over from an earlier run.
			continue
		}
		if err != nil {
			return users, fmt.Errorf("create user: %w", err)
		}

		if s.factory.Chance(70) {
			name, bio := s.factory.DisplayName(), s.factory.Bio()
			if user, err = s.identity.UpdateProfile(ctx, user.ID, models.ProfileUpdate{DisplayName: &name, Bio: &bio}); err != nil {
				return users, fmt.Errorf("update profile: %w", err)
			}
		}
		users = append(users, user)
		sum.Users++
	}
	return users, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, sum *Summary) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for range s.opts.NumPosts {
		author := models.AuthorFromUser(users[s.factory.Intn(len(users))])
		post, err := s.posts.CreatePost(ctx, author, s.factory.PostContent(), "")
		if err != nil {
			return posts, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, post)
		sum.Posts++
	}
	return posts, nil
}

func (s *Seeder) seedComments(ctx context.Context, users []*models.User, posts []*models.Post, sum *Summary) error {
	if len(posts) == 0 {
		return nil
	}
	for range s.opts.NumComments {
		post := posts[s.factory.Intn(len(posts))]
		author := models.AuthorFromUser(users[s.factory.Intn(len(users))])
		if _, err := s.comments.AddComment(ctx, post.ID, author, s.factory.CommentContent()); err != nil {
			return fmt.Errorf("add comment: %w", err)
		}
		sum.Comments++
	}
	return nil
}

func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, posts []*models.Post, sum *Summary) error {
	for _, post := range posts {
		for range s.factory.Intn(s.opts.LikesPerPost + 1) {
			if _, err := s.engagement.Like(ctx, post.ID); err != nil {
				return fmt.Errorf("like: %w", err)
			}
			sum.Likes++
		}
		if s.opts.RepostPercent > 0 && s.factory.Chance(s.opts.RepostPercent) {
			actor := models.AuthorFromUser(users[s.factory.Intn(len(users))])
			if _, err := s.engagement.Repost(ctx, post.ID, actor); err != nil {
				return fmt.Errorf("repost: %w", err)
			}
			sum.Reposts++
		}
	}
	return nil
}

package service

import (
	"context"

	"minifeed/internal/models"
	"minifeed/internal/repository"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	updateProfileFn func(context.Context, uint, models.ProfileUpdate) (*models.User, error)
	listFn          func(context.Context, int, int) ([]*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) (*models.User, error) {
	return s.updateProfileFn(ctx, id, update)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn:       func(_ context.Context, _ uint) (*models.User, error) { return &models.User{}, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return &models.User{}, nil },
		updateProfileFn: func(_ context.Context, _ uint, _ models.ProfileUpdate) (*models.User, error) { return &models.User{}, nil },
		listFn:          func(_ context.Context, _, _ int) ([]*models.User, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	listPageFn       func(context.Context, repository.PostFilter, *models.FeedCursor, int) ([]*models.Post, error)
	countFn          func(context.Context) (int64, error)
	incrementLikesFn func(context.Context, uint) error
	repostFn         func(context.Context, uint, repository.RepostBuilder) (*models.Post, *models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListPage(ctx context.Context, filter repository.PostFilter, after *models.FeedCursor, limit int) ([]*models.Post, error) {
	return s.listPageFn(ctx, filter, after, limit)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *postRepoStub) IncrementLikes(ctx context.Context, id uint) error {
	return s.incrementLikesFn(ctx, id)
}
func (s *postRepoStub) Repost(ctx context.Context, id uint, build repository.RepostBuilder) (*models.Post, *models.Post, error) {
	return s.repostFn(ctx, id, build)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		listPageFn: func(_ context.Context, _ repository.PostFilter, _ *models.FeedCursor, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		countFn:          func(_ context.Context) (int64, error) { return 0, nil },
		incrementLikesFn: func(_ context.Context, _ uint) error { return nil },
		repostFn: func(_ context.Context, _ uint, _ repository.RepostBuilder) (*models.Post, *models.Post, error) {
			return &models.Post{}, nil, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	listByPostFn  func(context.Context, uint) ([]*models.Comment, error)
	listByPostsFn func(context.Context, []uint) (map[uint][]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) ListByPosts(ctx context.Context, postIDs []uint) (map[uint][]*models.Comment, error) {
	return s.listByPostsFn(ctx, postIDs)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listByPostsFn: func(_ context.Context, _ []uint) (map[uint][]*models.Comment, error) {
			return map[uint][]*models.Comment{}, nil
		},
	}
}

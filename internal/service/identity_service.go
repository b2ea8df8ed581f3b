package service

import (
	"context"
	"errors"
	"sync"

	"minifeed/internal/models"
	"minifeed/internal/observability"
	"minifeed/internal/repository"
	"minifeed/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const dummyPassword = "minifeed-dummy-password"

// IdentityService registers users, checks credentials and edits profiles.
type IdentityService struct {
	users     repository.UserRepository
	cost      int
	now       Clock
	dummyHash func() ([]byte, error)
}

// NewIdentityService hashes with bcrypt at cost (bcrypt.DefaultCost when out of range).
func NewIdentityService(users repository.UserRepository, cost int, clock Clock) *IdentityService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &IdentityService{
		users: users,
		cost:  cost,
		now:   clockOrDefault(clock),
		dummyHash: sync.OnceValues(func() ([]byte, error) {
			return bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
		}),
	}
}

func (s *IdentityService) Register(ctx context.Context, username, password string) (user *models.User, err error) {
	span, ctx := observability.NewSpan(ctx, "identity.register", attribute.String("user.name", username))
	defer span.Finish(&err)
	defer func() {
		observability.AuthAttempts.WithLabelValues("signup", observability.Result(err)).Inc()
	}()

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify returns the user for a correct username/password pair. A missing
// user and a wrong password produce the same error after one bcrypt compare each.
func (s *IdentityService) Verify(ctx context.Context, username, password string) (user *models.User, err error) {
	span, ctx := observability.NewSpan(ctx, "identity.verify")
	defer span.Finish(&err)

	user, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, &models.AppError{Code: models.CodeNotFound}) {
			return nil, err
		}
		dummy, hashErr := s.dummyHash()
		if hashErr != nil {
			return nil, models.NewInternalError(hashErr)
		}
		_ = bcrypt.CompareHashAndPassword(dummy, []byte(password))
		return nil, models.NewAuthFailureError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewAuthFailureError()
	}
	return user, nil
}

// UpdateProfile applies a partial update. Ownership is checked by the caller.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID uint, update models.ProfileUpdate) (user *models.User, err error) {
	span, ctx := observability.NewSpan(ctx, "identity.update_profile", attribute.Int64("user.id", int64(userID)))
	defer span.Finish(&err)

	if err := validation.ValidateProfile(update.DisplayName, update.Bio); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if update.IsEmpty() {
		return s.users.GetByID(ctx, userID)
	}
	return s.users.UpdateProfile(ctx, userID, update)
}

func (s *IdentityService) GetProfile(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers pages through accounts, newest signup first. limit <= 0 returns all.
func (s *IdentityService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if offset < 0 {
		return nil, models.NewValidationError("offset must not be negative")
	}
	return s.users.List(ctx, limit, offset)
}

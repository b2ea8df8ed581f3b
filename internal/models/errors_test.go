package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"empty post", NewEmptyPostError(), http.StatusBadRequest},
		{"empty content", NewEmptyContentError("Comment"), http.StatusBadRequest},
		{"duplicate username", NewDuplicateUsernameError("alice"), http.StatusConflict},
		{"auth failure", NewAuthFailureError(), http.StatusUnauthorized},
		{"unauthorized", NewUnauthorizedError("login"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("nope"), http.StatusForbidden},
		{"not found", NewNotFoundError("Post", 3), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFoundError("Post", 3)), http.StatusNotFound},
		{"internal", NewInternalError(errors.New("disk")), http.StatusInternalServerError},
		{"fiber error", fiber.NewError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", NewNotFoundError("Post", 9))
	assert.True(t, errors.Is(err, &AppError{Code: CodeNotFound}))
	assert.False(t, errors.Is(err, &AppError{Code: CodeValidation}))
	assert.True(t, IsInvalidInput(NewEmptyPostError()))
	assert.False(t, IsInvalidInput(NewAuthFailureError()))
}

func TestAuthFailureMessageIsGeneric(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NewAuthFailureError().Error(), NewAuthFailureError().Error())
	assert.NotContains(t, NewAuthFailureError().Error(), "not found")
}

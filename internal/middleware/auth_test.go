package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"minifeed/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, token string) (auth.Identity, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	return f(ctx, token)
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := make([]byte, 64)
		n, _ := resp.Body.Read(body)
		_ = resp.Body.Close()
		assert.Equal(t, tt.want, string(body[:n]), tt.header)
	}
}

func TestSessionAuth(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, token string) (auth.Identity, error) {
		switch token {
		case "good":
			return auth.Identity{UserID: 7, Username: "alice", Token: token}, nil
		case "outage":
			return auth.Anonymous, errors.New("redis down")
		default:
			return auth.Anonymous, nil
		}
	})

	app := fiber.New()
	app.Use(SessionAuth(resolver))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		uid, _ := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{"username": id.Username, "user_id": uid})
	})
	app.Get("/private", RequireSession(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"anonymous public", "/whoami", "", http.StatusOK},
		{"authenticated public", "/whoami", "good", http.StatusOK},
		{"anonymous private", "/private", "", http.StatusUnauthorized},
		{"unknown token private", "/private", "stale", http.StatusUnauthorized},
		{"authenticated private", "/private", "good", http.StatusNoContent},
		{"store outage", "/whoami", "outage", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

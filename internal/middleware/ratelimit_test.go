package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCheckRateLimit(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1.2.3.4"))

	allowed, err = CheckRateLimit(ctx, rdb, "login", "ip:5.6.7.8", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "limits are per caller")

	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "login", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "the window resets")

	_, err = CheckRateLimit(ctx, nil, "login", "x", 1, time.Minute)
	assert.Error(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	hit := func(app *fiber.App, path string) int {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("limits after threshold", func(t *testing.T) {
		_, rdb := newRedis(t)
		app := fiber.New()
		app.Post("/signup", RateLimit(rdb, 1, time.Minute, "signup"), ok)

		assert.Equal(t, http.StatusOK, hit(app, "/signup"))
		assert.Equal(t, http.StatusTooManyRequests, hit(app, "/signup"))
	})

	t.Run("fail open", func(t *testing.T) {
		mr, rdb := newRedis(t)
		mr.SetError("LOADING")
		app := fiber.New()
		app.Post("/signup", RateLimit(rdb, 1, time.Minute, "signup"), ok)

		assert.Equal(t, http.StatusOK, hit(app, "/signup"))
	})

	t.Run("fail closed", func(t *testing.T) {
		app := fiber.New()
		app.Post("/login", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed, "login"), ok)

		assert.Equal(t, http.StatusServiceUnavailable, hit(app, "/login"))
	})
}

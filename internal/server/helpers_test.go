package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"minifeed/internal/models"
	"minifeed/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"postId", "post ID"},
		{"commentId", "comment ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cur := models.FeedCursor{CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC), ID: 42}
	got, err := decodeCursor(encodeCursor(cur))
	require.NoError(t, err)
	assert.True(t, cur.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, cur.ID, got.ID)

	for _, bad := range []string{"!!", "bm9jb2xvbg", "MTIzOjA", "YWJjOjE"} {
		_, err := decodeCursor(bad)
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err), bad)
	}
}

func TestNextCursor(t *testing.T) {
	posts := []*models.Post{{ID: 2, CreatedAt: time.Now()}, {ID: 1, CreatedAt: time.Now()}}

	assert.Empty(t, nextCursor(service.FeedQuery{}, posts), "unlimited reads have no next page")
	assert.Empty(t, nextCursor(service.FeedQuery{Limit: 3}, posts), "short page is the last one")

	token := nextCursor(service.FeedQuery{Limit: 2}, posts)
	cur, err := decodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), cur.ID)
}

func TestParseFeedQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		q, err := parseFeedQuery(c)
		if err != nil {
			return respondAppError(c, err)
		}
		return c.JSON(fiber.Map{"limit": q.Limit, "cursor": q.Before != nil})
	})

	tests := []struct {
		query  string
		status int
	}{
		{"", fiber.StatusOK},
		{"?limit=10", fiber.StatusOK},
		{"?limit=100000", fiber.StatusOK},
		{"?limit=-1", fiber.StatusBadRequest},
		{"?limit=ten", fiber.StatusBadRequest},
		{"?before=%25%25", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestReadinessCheck(t *testing.T) {
	t.Run("database down", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		s := &Server{db: db}
		app := fiber.New()
		app.Get("/health/ready", s.ReadinessCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("healthy with redis", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing()
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		s := &Server{db: db, redis: rdb}
		app := fiber.New()
		app.Get("/health/ready", s.ReadinessCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

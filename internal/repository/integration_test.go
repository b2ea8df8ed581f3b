//go:build integration

package repository

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"minifeed/internal/config"
	"minifeed/internal/database"
	"minifeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func postgresFromEnv(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping postgres integration test")
	}
	u, err := url.Parse(dsn)
	require.NoError(t, err)

	password, _ := u.User.Password()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db, err := database.Connect(&config.Config{
		DBDriver:       config.DriverPostgres,
		DBHost:         u.Hostname(),
		DBPort:         port,
		DBUser:         u.User.Username(),
		DBPassword:     password,
		DBName:         strings.TrimPrefix(u.Path, "/"),
		DBSSLMode:      "disable",
		DBMaxOpenConns: 20,
		Env:            "test",
		DBSchemaMode:   database.SchemaModeSQL,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestIntegration_ConcurrentLikesPostgres(t *testing.T) {
	db := postgresFromEnv(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := newPost("integration", "contended", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, post))
	t.Cleanup(func() { db.Delete(&models.Post{}, post.ID) })

	const likes = 200
	var g errgroup.Group
	g.SetLimit(20)
	for i := 0; i < likes; i++ {
		g.Go(func() error { return repo.IncrementLikes(ctx, post.ID) })
	}
	require.NoError(t, g.Wait())

	var reposts errgroup.Group
	for i := 0; i < 20; i++ {
		reposts.Go(func() error {
			_, _, err := repo.Repost(ctx, post.ID, nil)
			return err
		})
	}
	require.NoError(t, reposts.Wait())

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(likes), got.LikeCount)
	assert.Equal(t, int64(20), got.RepostCount)
}

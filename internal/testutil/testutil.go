// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"minifeed/internal/config"
	"minifeed/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewSQLiteDB returns a fresh, migrated in-memory store private to the test.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	// A named shared-cache database keeps the schema visible if the pool
	// ever opens a second connection.
	name := fmt.Sprintf("file:minifeed_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     config.DriverSQLite,
		DBPath:       name,
		DBSchemaMode: database.SchemaModeSQL,
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	require.NoError(t, err)
	require.NoError(t, database.ApplySchema(context.Background(), db, cfg))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed UTC instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current instant and advances the clock by one second so
// consecutive calls are strictly increasing.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

package database

import (
	"context"
	"testing"

	"minifeed/internal/config"
	"minifeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func sqliteConfig(mode string) *config.Config {
	return &config.Config{
		Env:          "test",
		DBDriver:     config.DriverSQLite,
		DBPath:       ":memory:",
		DBSchemaMode: mode,
	}
}

func openSQLite(t *testing.T, mode string) *gorm.DB {
	t.Helper()
	db, err := ConnectWithOptions(sqliteConfig(mode), ConnectOptions{ApplySchema: false})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{"hybrid postgres dev", &config.Config{Env: "development", DBDriver: config.DriverPostgres}, true, true, false},
		{"hybrid postgres prod", &config.Config{Env: "production", DBDriver: config.DriverPostgres}, true, false, false},
		{"hybrid sqlite dev", &config.Config{Env: "development", DBDriver: config.DriverSQLite}, true, false, false},
		{"sql only", &config.Config{DBSchemaMode: SchemaModeSQL}, true, false, false},
		{"auto dev", &config.Config{Env: "development", DBSchemaMode: SchemaModeAuto}, false, true, false},
		{"auto prod refused", &config.Config{Env: "prod", DBSchemaMode: SchemaModeAuto}, false, false, true},
		{"unknown mode", &config.Config{DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}

func TestMigrationsRegisteredForBothDialects(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		registered := MigrationsFor(dialect)
		require.NotEmpty(t, registered, dialect)
		assert.Equal(t, 1, registered[0].Version)
		assert.Equal(t, "000001_init", registered[0].String())
		assert.Contains(t, registered[0].UpScript, "CREATE TABLE IF NOT EXISTS posts")
		assert.Contains(t, registered[0].DownScript, "DROP TABLE IF EXISTS posts")
	}
}

func TestRunMigrations_SQLiteUpStatusDown(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(SchemaModeSQL)
	db := openSQLite(t, SchemaModeSQL)

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Dialect)
	assert.Len(t, status.PendingMigrations, 1)

	require.NoError(t, ApplySchema(ctx, db, cfg))
	// Second run is a no-op.
	require.NoError(t, RunMigrations(ctx, db))

	status, err = GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, status.AppliedVersions)
	assert.Empty(t, status.PendingMigrations)

	require.NoError(t, db.Create(&models.User{Username: "alice", PasswordHash: "x"}).Error)

	require.NoError(t, RollbackMigration(ctx, db, 1))
	assert.False(t, db.Migrator().HasTable("users"))
	assert.Error(t, RollbackMigration(ctx, db, 1), "already rolled back")
	assert.Error(t, RollbackMigration(ctx, db, 99), "unknown version")
}

func TestValidateAppliedVersions_UnknownVersion(t *testing.T) {
	err := validateAppliedVersions([]int{1, 7}, []Migration{{Version: 1, Name: "init"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestApplySchema_AutoMigrateSQLite(t *testing.T) {
	db := openSQLite(t, SchemaModeAuto)
	require.NoError(t, ApplySchema(context.Background(), db, sqliteConfig(SchemaModeAuto)))

	for _, table := range []string{"users", "posts", "comments"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Post{}, "idx_posts_feed"))
}

func TestConfigurePool_Postgres(t *testing.T) {
	db := openSQLite(t, SchemaModeAuto)
	cfg := &config.Config{DBDriver: config.DriverPostgres, DBMaxOpenConns: 10, DBMaxIdleConns: 5, DBConnMaxLifetimeMinutes: 15}

	require.NoError(t, configurePool(db, cfg))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestPing(t *testing.T) {
	db := openSQLite(t, SchemaModeAuto)
	assert.NoError(t, Ping(context.Background(), db))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_foreign_keys=on&_busy_timeout=5000", SQLiteDSN(":memory:"))
	assert.Equal(t, "file:feed.db?_foreign_keys=on&_busy_timeout=5000", SQLiteDSN("feed.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on&_busy_timeout=5000", SQLiteDSN("file:x?mode=memory"))
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"minifeed/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name     string
		queryErr error
		wantCode string
	}{
		{"success", nil, ""},
		{"duplicate username", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}, models.CodeDuplicateUsername},
		{"storage failure", errors.New("connection reset"), models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewUserRepository(db)

			mock.ExpectBegin()
			q := mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`))
			if tt.queryErr != nil {
				q.WillReturnError(tt.queryErr)
				mock.ExpectRollback()
			} else {
				q.WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			}

			user := &models.User{Username: "alice", PasswordHash: "hash"}
			err := repo.Create(context.Background(), user)

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, uint(1), user.ID)
			} else {
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsername_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1`)).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	user, err := repo.GetByUsername(context.Background(), "ghost")
	assert.Nil(t, user)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_IncrementLikes_IsSingleAtomicUpdate(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantCode string
	}{
		{"existing post", 1, ""},
		{"missing post", 0, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewPostRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "like_count"=like_count + $1 WHERE id = $2`)).
				WithArgs(1, 7).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			err := repo.IncrementLikes(context.Background(), 7)
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_Repost_RollsBackOnMissingPost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "repost_count"=repost_count + $1 WHERE id = $2`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	built := false
	_, created, err := repo.Repost(context.Background(), 42, func(*models.Post) *models.Post {
		built = true
		return &models.Post{}
	})

	assert.Nil(t, created)
	assert.False(t, built)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_Create_MissingPostInsertsNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE id = $1`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Comment{PostID: 5, AuthorUsername: "bob", Content: "hi"})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListByPost_OrdersAscending(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE post_id = $1 ORDER BY created_at ASC,id ASC`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "content"}).
			AddRow(1, 3, "first").
			AddRow(2, 3, "second"))

	comments, err := repo.ListByPost(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.username")))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueConstraintError(nil))
}

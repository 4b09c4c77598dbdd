package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"locker-tab-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens a private in-memory database for one test.
func newSQLiteDB(t *testing.T) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.HistoryBlob{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestGormStore_GetMissing(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "history_blobs" WHERE blob_key = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"blob_key", "data", "updated_at"}))

	_, err := s.Get(context.Background(), "history:alice")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetDatabaseError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "history_blobs"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := s.Get(context.Background(), "history:alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Delete(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "history_blobs" WHERE "history_blobs"."blob_key" = $1`)).
		WithArgs("history:alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, s.Delete(context.Background(), "history:alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SetOverwrites(t *testing.T) {
	s := NewGormStore(newSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "history", `[{"boxNumber":1}]`))
	require.NoError(t, s.Set(ctx, "history", `[{"boxNumber":2}]`))

	got, err := s.Get(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, `[{"boxNumber":2}]`, got)

	require.NoError(t, s.Delete(ctx, "history"))
	_, err = s.Get(ctx, "history")
	assert.ErrorIs(t, err, ErrNotFound)
}

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"casilleros-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_CreateBlock_RollsBackOnLockerFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "bloques"`)).
		WithArgs("Test", 2, 3, Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "casilleros"`)).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	block, err := s.CreateBlock(context.Background(), "Test", 2, 3)
	assert.Nil(t, block)
	assert.ErrorContains(t, err, "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateBlock_Commits(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id_casillero"})
	for i := 1; i <= 2; i++ {
		rows.AddRow(i)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "bloques"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "casilleros"`)).
		WithArgs("X-1-1", "Disponible", 3, Any{}, "X-1-2", "Disponible", 3, Any{}).
		WillReturnRows(rows)
	mock.ExpectCommit()

	block, err := s.CreateBlock(context.Background(), "X", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), block.ID)
	assert.Len(t, block.Lockers, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpdateLockerState_NotFound(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "casilleros" SET "estado"=$1 WHERE id_casillero = $2`)).
		WithArgs("Ocupado", 42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.UpdateLockerState(context.Background(), 42, model.StateOccupied)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Stats_StoreError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "estado" FROM "casilleros"`)).
		WillReturnError(errors.New("relation \"casilleros\" does not exist"))

	_, err := s.Stats(context.Background())
	assert.ErrorContains(t, err, "does not exist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

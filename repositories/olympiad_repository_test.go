package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldemarco/olympiad-system/models"
)

func TestOlympiadUpdateName(t *testing.T) {
	now := time.Now()

	t.Run("bumps the version on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE olympiads").
			WithArgs("Winter Games", 1, 3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pin_hash", "version", "created_at", "updated_at"}).
				AddRow(1, "Winter Games", "hash", 4, now, now))

		repo := NewPostgresOlympiadRepository(db)
		o, err := repo.UpdateName(context.Background(), db, 1, "Winter Games", 3)
		require.NoError(t, err)

		assert.Equal(t, "Winter Games", o.Name)
		assert.Equal(t, 4, o.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports the current version on a stale precondition", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE olympiads").
			WithArgs("Winter Games", 1, 3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pin_hash", "version", "created_at", "updated_at"}))
		mock.ExpectQuery("SELECT version FROM olympiads").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(7))

		repo := NewPostgresOlympiadRepository(db)
		_, err = repo.UpdateName(context.Background(), db, 1, "Winter Games", 3)

		var conflict *VersionConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 7, conflict.CurrentVersion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("distinguishes a vanished row from a conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE olympiads").
			WithArgs("Winter Games", 42, 3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pin_hash", "version", "created_at", "updated_at"}))
		mock.ExpectQuery("SELECT version FROM olympiads").
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		repo := NewPostgresOlympiadRepository(db)
		_, err = repo.UpdateName(context.Background(), db, 42, "Winter Games", 3)

		assert.ErrorIs(t, err, ErrOlympiadNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOlympiadCreateNameConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO olympiads").
		WithArgs("Winter Games", "hash").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "olympiads_name_key"})

	repo := NewPostgresOlympiadRepository(db)
	err = repo.Create(context.Background(), &models.Olympiad{Name: "Winter Games", PINHash: "hash"})

	assert.ErrorIs(t, err, ErrOlympiadNameConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOlympiadGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM olympiads").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pin_hash", "version", "created_at", "updated_at"}))

	repo := NewPostgresOlympiadRepository(db)
	_, err = repo.GetByID(context.Background(), 99)

	assert.True(t, errors.Is(err, ErrOlympiadNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldemarco/olympiad-system/models"
)

func TestMatchUpdateStatus(t *testing.T) {
	now := time.Now()

	t.Run("bumps the version on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE matches").
			WithArgs(models.MatchStatusInProgress, 10, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "status", "version", "created_at", "updated_at"}).
				AddRow(10, 3, "in_progress", 2, now, now))

		repo := NewPostgresMatchRepository(db)
		m, err := repo.UpdateStatus(context.Background(), db, 10, models.MatchStatusInProgress, 1)
		require.NoError(t, err)

		assert.Equal(t, models.MatchStatusInProgress, m.Status)
		assert.Equal(t, 2, m.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports the current version on a stale precondition", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE matches").
			WithArgs(models.MatchStatusCompleted, 10, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "status", "version", "created_at", "updated_at"}))
		mock.ExpectQuery("SELECT version FROM matches").
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))

		repo := NewPostgresMatchRepository(db)
		_, err = repo.UpdateStatus(context.Background(), db, 10, models.MatchStatusCompleted, 1)

		var conflict *VersionConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 4, conflict.CurrentVersion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when the match is gone", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE matches").
			WithArgs(models.MatchStatusCompleted, 99, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "status", "version", "created_at", "updated_at"}))
		mock.ExpectQuery("SELECT version FROM matches").
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		repo := NewPostgresMatchRepository(db)
		_, err = repo.UpdateStatus(context.Background(), db, 99, models.MatchStatusCompleted, 1)

		assert.ErrorIs(t, err, ErrMatchNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMatchListByStage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	next := 12
	mock.ExpectQuery("SELECT (.+) FROM matches").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "status", "version", "created_at", "updated_at", "next_match_id"}).
			AddRow(10, 3, "pending", 1, now, now, next).
			AddRow(11, 3, "pending", 1, now, now, next).
			AddRow(12, 3, "pending", 1, now, now, nil))

	repo := NewPostgresMatchRepository(db)
	matches, err := repo.ListByStage(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, matches, 3)
	require.NotNil(t, matches[0].NextMatchID)
	assert.Equal(t, 12, *matches[0].NextMatchID)
	assert.Nil(t, matches[2].NextMatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/repositories"
)

func newEventServiceForTest(t *testing.T) (EventService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewEventService(
		db,
		repositories.NewPostgresEventRepository(db),
		repositories.NewPostgresStageRepository(db),
		repositories.NewPostgresMatchRepository(db),
		repositories.NewPostgresTeamRepository(db),
		repositories.NewPostgresOlympiadRepository(db),
		nil,
	)
	return svc, mock
}

func testPINHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func stageKindRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"kind", "label"}).
		AddRow("round_robin", "Round robin").
		AddRow("single_elimination", "Single elimination")
}

func TestCreateWithStagesValidation(t *testing.T) {
	t.Run("rejects fewer than two teams without touching the database", func(t *testing.T) {
		svc, mock := newEventServiceForTest(t)

		_, err := svc.CreateWithStages(context.Background(), 1, CreateEventInput{
			Name:      "Chess",
			ScoreKind: models.ScoreKindPoints,
			TeamIDs:   []int{10},
			Stages:    []StageInput{{Kind: models.StageKindSingleElimination}},
		}, "1234")

		assert.ErrorIs(t, err, ErrNotEnoughTeams)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an unknown stage kind before opening a transaction", func(t *testing.T) {
		svc, mock := newEventServiceForTest(t)

		mock.ExpectQuery("SELECT kind, label FROM stage_kinds").
			WillReturnRows(stageKindRows())

		_, err := svc.CreateWithStages(context.Background(), 1, CreateEventInput{
			Name:      "Chess",
			ScoreKind: models.ScoreKindPoints,
			TeamIDs:   []int{10, 11},
			Stages:    []StageInput{{Kind: models.StageKind("swiss")}},
		}, "1234")

		assert.ErrorIs(t, err, ErrUnknownStageKind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a team from another olympiad", func(t *testing.T) {
		svc, mock := newEventServiceForTest(t)

		mock.ExpectQuery("SELECT kind, label FROM stage_kinds").
			WillReturnRows(stageKindRows())
		mock.ExpectQuery("FROM teams WHERE olympiad_id").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "olympiad_id", "name", "version", "logo_key", "created_at", "updated_at"}).
				AddRow(10, 1, "Alpha", 1, nil, time.Now(), time.Now()))

		_, err := svc.CreateWithStages(context.Background(), 1, CreateEventInput{
			Name:      "Chess",
			ScoreKind: models.ScoreKindPoints,
			TeamIDs:   []int{10, 99},
			Stages:    []StageInput{{Kind: models.StageKindSingleElimination}},
		}, "1234")

		assert.ErrorIs(t, err, ErrTeamNotInOlympiad)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateWithStagesPersistsBracket(t *testing.T) {
	svc, mock := newEventServiceForTest(t)
	mock.MatchExpectationsInOrder(false)

	now := time.Now()
	pinHash := testPINHash(t)
	teamRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "olympiad_id", "name", "version", "logo_key", "created_at", "updated_at"}).
			AddRow(10, 1, "Alpha", 1, nil, now, now).
			AddRow(11, 1, "Beta", 1, nil, now, now)
	}

	mock.ExpectQuery("SELECT kind, label FROM stage_kinds").
		WillReturnRows(stageKindRows())
	mock.ExpectQuery("FROM teams WHERE olympiad_id").
		WithArgs(1).
		WillReturnRows(teamRows())

	mock.ExpectBegin()
	mock.ExpectQuery("FROM olympiads WHERE id = (.+) FOR UPDATE").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pin_hash", "version", "created_at", "updated_at"}).
			AddRow(1, "Spring Games", pinHash, 1, now, now))
	mock.ExpectQuery("INSERT INTO events").
		WithArgs(1, "Chess", models.ScoreKindPoints).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow(5, "registration", now, now))
	mock.ExpectExec("INSERT INTO event_teams").
		WithArgs(5, 10, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO event_teams").
		WithArgs(5, 11, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO event_stages").
		WithArgs(5, models.StageKindSingleElimination, 1, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(7, "pending"))
	mock.ExpectQuery("INSERT INTO groups").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectExec("INSERT INTO group_teams").
		WithArgs(8, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO group_teams").
		WithArgs(8, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Two teams produce a single match: the final, with no outgoing edge.
	mock.ExpectQuery("INSERT INTO matches").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(20))
	mock.ExpectExec("INSERT INTO bracket_matches").
		WithArgs(20, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO match_teams").
		WithArgs(20, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO match_teams").
		WithArgs(20, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM events WHERE id").
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "olympiad_id", "name", "status", "score_kind", "created_at", "updated_at"}).
			AddRow(5, 1, "Chess", "registration", "points", now, now))
	mock.ExpectQuery("JOIN event_teams").
		WithArgs(5).
		WillReturnRows(teamRows())
	mock.ExpectQuery("FROM event_stages").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "kind", "status", "stage_order", "advance_count"}).
			AddRow(7, 5, "single_elimination", "pending", 1, nil))
	mock.ExpectQuery("JOIN groups").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "status", "version", "created_at", "updated_at", "next_match_id"}).
			AddRow(20, 8, "pending", 1, now, now, nil))
	mock.ExpectQuery("JOIN match_teams").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "score"}).
			AddRow(10, "Alpha", nil).
			AddRow(11, "Beta", nil))

	event, err := svc.CreateWithStages(context.Background(), 1, CreateEventInput{
		Name:      "Chess",
		ScoreKind: models.ScoreKindPoints,
		TeamIDs:   []int{10, 11},
		Stages:    []StageInput{{Kind: models.StageKindSingleElimination}},
	}, "1234")
	require.NoError(t, err)

	require.Len(t, event.Stages, 1)
	require.Len(t, event.Stages[0].Matches, 1)
	final := event.Stages[0].Matches[0]
	assert.Nil(t, final.NextMatchID)
	require.Len(t, final.Teams, 2)
	assert.Equal(t, "Alpha", final.Teams[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStageStatus(t *testing.T) {
	olympiadRows := func(now time.Time, pinHash string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "pin_hash", "version", "created_at", "updated_at"}).
			AddRow(1, "Spring Games", pinHash, 1, now, now)
	}
	eventRows := func(now time.Time) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "olympiad_id", "name", "status", "score_kind", "created_at", "updated_at"}).
			AddRow(5, 1, "Chess", "started", "points", now, now)
	}

	t.Run("advances a pending stage to in_progress", func(t *testing.T) {
		svc, mock := newEventServiceForTest(t)

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("FROM olympiads WHERE id = (.+) FOR UPDATE").
			WithArgs(1).
			WillReturnRows(olympiadRows(now, testPINHash(t)))
		mock.ExpectQuery("FROM events WHERE id").
			WithArgs(5, 1).
			WillReturnRows(eventRows(now))
		mock.ExpectQuery("FROM event_stages").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "kind", "status", "stage_order", "advance_count"}).
				AddRow(7, 5, "single_elimination", "pending", 1, nil))
		mock.ExpectExec("UPDATE event_stages SET status").
			WithArgs(models.StageStatusInProgress, 7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		stage, err := svc.UpdateStageStatus(context.Background(), 1, 5, 7, models.StageStatusInProgress, "1234")
		require.NoError(t, err)
		assert.Equal(t, models.StageStatusInProgress, stage.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects reopening a completed stage", func(t *testing.T) {
		svc, mock := newEventServiceForTest(t)

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("FROM olympiads WHERE id = (.+) FOR UPDATE").
			WithArgs(1).
			WillReturnRows(olympiadRows(now, testPINHash(t)))
		mock.ExpectQuery("FROM events WHERE id").
			WithArgs(5, 1).
			WillReturnRows(eventRows(now))
		mock.ExpectQuery("FROM event_stages").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "kind", "status", "stage_order", "advance_count"}).
				AddRow(7, 5, "single_elimination", "completed", 1, nil))
		mock.ExpectRollback()

		_, err := svc.UpdateStageStatus(context.Background(), 1, 5, 7, models.StageStatusInProgress, "1234")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown stage yields not found", func(t *testing.T) {
		svc, mock := newEventServiceForTest(t)

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("FROM olympiads WHERE id = (.+) FOR UPDATE").
			WithArgs(1).
			WillReturnRows(olympiadRows(now, testPINHash(t)))
		mock.ExpectQuery("FROM events WHERE id").
			WithArgs(5, 1).
			WillReturnRows(eventRows(now))
		mock.ExpectQuery("FROM event_stages").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "kind", "status", "stage_order", "advance_count"}))
		mock.ExpectRollback()

		_, err := svc.UpdateStageStatus(context.Background(), 1, 5, 99, models.StageStatusInProgress, "1234")
		assert.ErrorIs(t, err, ErrStageNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateWithStagesRejectsWrongPIN(t *testing.T) {
	svc, mock := newEventServiceForTest(t)

	now := time.Now()
	pinHash := testPINHash(t)

	mock.ExpectQuery("SELECT kind, label FROM stage_kinds").
		WillReturnRows(stageKindRows())
	mock.ExpectQuery("FROM teams WHERE olympiad_id").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "olympiad_id", "name", "version", "logo_key", "created_at", "updated_at"}).
			AddRow(10, 1, "Alpha", 1, nil, now, now).
			AddRow(11, 1, "Beta", 1, nil, now, now))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM olympiads WHERE id = (.+) FOR UPDATE").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pin_hash", "version", "created_at", "updated_at"}).
			AddRow(1, "Spring Games", pinHash, 1, now, now))
	mock.ExpectRollback()

	_, err := svc.CreateWithStages(context.Background(), 1, CreateEventInput{
		Name:      "Chess",
		ScoreKind: models.ScoreKindPoints,
		TeamIDs:   []int{10, 11},
		Stages:    []StageInput{{Kind: models.StageKindSingleElimination}},
	}, "9999")

	assert.ErrorIs(t, err, ErrInvalidPIN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

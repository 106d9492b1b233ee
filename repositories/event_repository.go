package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ldemarco/olympiad-system/models"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNameConflict = errors.New("event name already in use in this olympiad")
	ErrEventTeamInvalid  = errors.New("event team does not exist")
)

type EventRepository interface {
	ListByOlympiad(ctx context.Context, olympiadID int) ([]*models.Event, error)
	GetByID(ctx context.Context, id, olympiadID int) (*models.Event, error)
	Create(ctx context.Context, exec SQLExecutor, event *models.Event) error
	Update(ctx context.Context, exec SQLExecutor, id int, name string, status models.EventStatus) (*models.Event, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error

	EnrollTeam(ctx context.Context, exec SQLExecutor, eventID, teamID, seed int) error
	ListTeams(ctx context.Context, eventID int) ([]models.Team, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, olympiad_id, name, status, score_kind, created_at, updated_at`

func scanEvent(row *sql.Row) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(&e.ID, &e.OlympiadID, &e.Name, &e.Status, &e.ScoreKind, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresEventRepository) ListByOlympiad(ctx context.Context, olympiadID int) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE olympiad_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, olympiadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for olympiad %d: %w", olympiadID, err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.OlympiadID, &e.Name, &e.Status, &e.ScoreKind, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event rows iteration: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id, olympiadID int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND olympiad_id = $2`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id, olympiadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event %d: %w", id, err)
	}
	return e, nil
}

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	query := `
		INSERT INTO events (olympiad_id, name, score_kind)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query, event.OlympiadID, event.Name, event.ScoreKind).
		Scan(&event.ID, &event.Status, &event.CreatedAt, &event.UpdatedAt)
	return r.handleEventError(err)
}

func (r *postgresEventRepository) Update(ctx context.Context, exec SQLExecutor, id int, name string, status models.EventStatus) (*models.Event, error) {
	query := `
		UPDATE events
		SET name = $1, status = $2, updated_at = now()
		WHERE id = $3
		RETURNING ` + eventColumns

	e, err := scanEvent(exec.QueryRowContext(ctx, query, name, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, r.handleEventError(err)
	}
	return e, nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) EnrollTeam(ctx context.Context, exec SQLExecutor, eventID, teamID, seed int) error {
	query := `INSERT INTO event_teams (event_id, team_id, seed) VALUES ($1, $2, $3)`

	if _, err := exec.ExecContext(ctx, query, eventID, teamID, seed); err != nil {
		return r.handleEventError(err)
	}
	return nil
}

func (r *postgresEventRepository) ListTeams(ctx context.Context, eventID int) ([]models.Team, error) {
	query := `
		SELECT t.id, t.olympiad_id, t.name, t.version, t.logo_key, t.created_at, t.updated_at
		FROM teams t
		JOIN event_teams et ON t.id = et.team_id
		WHERE et.event_id = $1
		ORDER BY et.seed, t.name`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for event %d: %w", eventID, err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.OlympiadID, &t.Name, &t.Version, &t.LogoKey, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "events_olympiad_id_name_key" {
				return ErrEventNameConflict
			}
		case "23503":
			if pqErr.Constraint == "event_teams_team_id_fkey" {
				return ErrEventTeamInvalid
			}
		}
	}
	return err
}

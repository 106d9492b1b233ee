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
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name already in use in this olympiad")
)

type PlayerRepository interface {
	ListByOlympiad(ctx context.Context, olympiadID int) ([]*models.Player, error)
	GetByID(ctx context.Context, id, olympiadID int) (*models.Player, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, id, olympiadID int) (*models.Player, error)
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	UpdateName(ctx context.Context, exec SQLExecutor, id int, name string, expectedVersion int) (*models.Player, error)
	Delete(ctx context.Context, exec SQLExecutor, id int, expectedVersion int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, olympiad_id, name, version, created_at, updated_at`

func scanPlayer(row *sql.Row) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(&p.ID, &p.OlympiadID, &p.Name, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) ListByOlympiad(ctx context.Context, olympiadID int) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE olympiad_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, olympiadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for olympiad %d: %w", olympiadID, err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.OlympiadID, &p.Name, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id, olympiadID int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 AND olympiad_id = $2`

	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id, olympiadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id, olympiadID int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 AND olympiad_id = $2 FOR UPDATE`

	p, err := scanPlayer(exec.QueryRowContext(ctx, query, id, olympiadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to lock player %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (olympiad_id, name)
		VALUES ($1, $2)
		RETURNING id, version, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query, player.OlympiadID, player.Name).
		Scan(&player.ID, &player.Version, &player.CreatedAt, &player.UpdatedAt)
	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) UpdateName(ctx context.Context, exec SQLExecutor, id int, name string, expectedVersion int) (*models.Player, error) {
	query := `
		UPDATE players
		SET name = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		RETURNING ` + playerColumns

	p, err := scanPlayer(exec.QueryRowContext(ctx, query, name, id, expectedVersion))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, exec, id)
		}
		return nil, r.handlePlayerError(err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int, expectedVersion int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM players WHERE id = $1 AND version = $2`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return r.conflictOrNotFound(ctx, exec, id)
	}
	return nil
}

func (r *postgresPlayerRepository) conflictOrNotFound(ctx context.Context, exec SQLExecutor, id int) error {
	var current int
	err := exec.QueryRowContext(ctx, `SELECT version FROM players WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to re-read player %d version: %w", id, err)
	}
	return &VersionConflictError{CurrentVersion: current}
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "players_olympiad_id_name_key" {
			return ErrPlayerNameConflict
		}
	}
	return err
}

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
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameConflict  = errors.New("team name already in use in this olympiad")
	ErrTeamPlayerInvalid = errors.New("team player does not exist")
)

type TeamRepository interface {
	ListByOlympiad(ctx context.Context, olympiadID int) ([]*models.Team, error)
	GetByID(ctx context.Context, id, olympiadID int) (*models.Team, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, id, olympiadID int) (*models.Team, error)
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	UpdateName(ctx context.Context, exec SQLExecutor, id int, name string, expectedVersion int) (*models.Team, error)
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int, expectedVersion int) error

	ListPlayers(ctx context.Context, teamID int) ([]models.Player, error)
	SetPlayers(ctx context.Context, exec SQLExecutor, teamID int, playerIDs []int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, olympiad_id, name, version, logo_key, created_at, updated_at`

func scanTeam(row *sql.Row) (*models.Team, error) {
	t := &models.Team{}
	err := row.Scan(&t.ID, &t.OlympiadID, &t.Name, &t.Version, &t.LogoKey, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) ListByOlympiad(ctx context.Context, olympiadID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE olympiad_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, olympiadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for olympiad %d: %w", olympiadID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.OlympiadID, &t.Name, &t.Version, &t.LogoKey, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id, olympiadID int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1 AND olympiad_id = $2`

	t, err := scanTeam(r.db.QueryRowContext(ctx, query, id, olympiadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTeamRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id, olympiadID int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1 AND olympiad_id = $2 FOR UPDATE`

	t, err := scanTeam(exec.QueryRowContext(ctx, query, id, olympiadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to lock team %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (olympiad_id, name)
		VALUES ($1, $2)
		RETURNING id, version, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query, team.OlympiadID, team.Name).
		Scan(&team.ID, &team.Version, &team.CreatedAt, &team.UpdatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, exec SQLExecutor, id int, name string, expectedVersion int) (*models.Team, error) {
	query := `
		UPDATE teams
		SET name = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		RETURNING ` + teamColumns

	t, err := scanTeam(exec.QueryRowContext(ctx, query, name, id, expectedVersion))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, exec, id)
		}
		return nil, r.handleTeamError(err)
	}
	return t, nil
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error {
	result, err := exec.ExecContext(ctx, `UPDATE teams SET logo_key = $1, updated_at = now() WHERE id = $2`, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update logo key for team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int, expectedVersion int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM teams WHERE id = $1 AND version = $2`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
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

func (r *postgresTeamRepository) ListPlayers(ctx context.Context, teamID int) ([]models.Player, error) {
	query := `
		SELECT p.id, p.olympiad_id, p.name, p.version, p.created_at, p.updated_at
		FROM players p
		JOIN team_players tp ON p.id = tp.player_id
		WHERE tp.team_id = $1
		ORDER BY p.name`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for team %d: %w", teamID, err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.OlympiadID, &p.Name, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team player rows iteration: %w", err)
	}
	return players, nil
}

// SetPlayers replaces the member set wholesale. Runs on the caller's
// executor so the clear and the re-adds commit or roll back together.
func (r *postgresTeamRepository) SetPlayers(ctx context.Context, exec SQLExecutor, teamID int, playerIDs []int) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM team_players WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to clear players for team %d: %w", teamID, err)
	}
	for _, playerID := range playerIDs {
		_, err := exec.ExecContext(ctx, `INSERT INTO team_players (team_id, player_id) VALUES ($1, $2)`, teamID, playerID)
		if err != nil {
			return r.handleTeamError(err)
		}
	}
	return nil
}

func (r *postgresTeamRepository) conflictOrNotFound(ctx context.Context, exec SQLExecutor, id int) error {
	var current int
	err := exec.QueryRowContext(ctx, `SELECT version FROM teams WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to re-read team %d version: %w", id, err)
	}
	return &VersionConflictError{CurrentVersion: current}
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "teams_olympiad_id_name_key" {
				return ErrTeamNameConflict
			}
		case "23503":
			if pqErr.Constraint == "team_players_player_id_fkey" {
				return ErrTeamPlayerInvalid
			}
		}
	}
	return err
}

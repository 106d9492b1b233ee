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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchTeamInvalid   = errors.New("match team does not exist")
	ErrBracketEdgeInvalid = errors.New("bracket edge references an unknown match")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, groupID int) (int, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetForUpdate locks the match row and resolves the owning olympiad
	// through group -> stage -> event, so callers can verify scope.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, expectedVersion int) (*models.Match, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Match, error)

	AddTeam(ctx context.Context, exec SQLExecutor, matchID, teamID int) error
	ListTeams(ctx context.Context, exec SQLExecutor, matchID int) ([]models.MatchTeam, error)
	UpsertScore(ctx context.Context, exec SQLExecutor, matchID, teamID, score int) error

	CreateEdge(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, group_id, status, version, created_at, updated_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, groupID int) (int, error) {
	var id int
	err := exec.QueryRowContext(ctx, `INSERT INTO matches (group_id) VALUES ($1) RETURNING id`, groupID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create match in group %d: %w", groupID, err)
	}
	return id, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT m.id, m.group_id, m.status, m.version, m.created_at, m.updated_at, bm.next_match_id
		FROM matches m
		LEFT JOIN bracket_matches bm ON m.id = bm.match_id
		WHERE m.id = $1`

	m := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.GroupID, &m.Status, &m.Version, &m.CreatedAt, &m.UpdatedAt, &m.NextMatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, int, error) {
	// Only the match row itself is locked; the ownership chain is static
	// once the bracket exists.
	query := `
		SELECT m.id, m.group_id, m.status, m.version, m.created_at, m.updated_at, e.olympiad_id
		FROM matches m
		JOIN groups g ON m.group_id = g.id
		JOIN event_stages s ON g.event_stage_id = s.id
		JOIN events e ON s.event_id = e.id
		WHERE m.id = $1
		FOR UPDATE OF m`

	m := &models.Match{}
	var olympiadID int
	err := exec.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.GroupID, &m.Status, &m.Version, &m.CreatedAt, &m.UpdatedAt, &olympiadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrMatchNotFound
		}
		return nil, 0, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return m, olympiadID, nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, expectedVersion int) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		RETURNING ` + matchColumns

	m := &models.Match{}
	err := exec.QueryRowContext(ctx, query, status, id, expectedVersion).
		Scan(&m.ID, &m.GroupID, &m.Status, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, exec, id)
		}
		return nil, fmt.Errorf("failed to update match %d: %w", id, err)
	}
	return m, nil
}

// ListByStage returns every match of the stage with its bracket edge,
// ordered by id, which is bracket allocation order.
func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Match, error) {
	query := `
		SELECT m.id, m.group_id, m.status, m.version, m.created_at, m.updated_at, bm.next_match_id
		FROM matches m
		JOIN groups g ON m.group_id = g.id
		LEFT JOIN bracket_matches bm ON m.id = bm.match_id
		WHERE g.event_stage_id = $1
		ORDER BY m.id`

	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Status, &m.Version, &m.CreatedAt, &m.UpdatedAt, &m.NextMatchID); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) AddTeam(ctx context.Context, exec SQLExecutor, matchID, teamID int) error {
	_, err := exec.ExecContext(ctx, `INSERT INTO match_teams (match_id, team_id) VALUES ($1, $2)`, matchID, teamID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) ListTeams(ctx context.Context, exec SQLExecutor, matchID int) ([]models.MatchTeam, error) {
	query := `
		SELECT t.id, t.name, mts.score
		FROM teams t
		JOIN match_teams mt ON t.id = mt.team_id
		LEFT JOIN match_team_scores mts ON mts.match_id = mt.match_id AND mts.team_id = mt.team_id
		WHERE mt.match_id = $1
		ORDER BY t.id`

	rows, err := exec.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for match %d: %w", matchID, err)
	}
	defer rows.Close()

	teams := make([]models.MatchTeam, 0)
	for rows.Next() {
		var mt models.MatchTeam
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.Score); err != nil {
			return nil, fmt.Errorf("failed to scan match team row: %w", err)
		}
		teams = append(teams, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresMatchRepository) UpsertScore(ctx context.Context, exec SQLExecutor, matchID, teamID, score int) error {
	query := `
		INSERT INTO match_team_scores (match_id, team_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id, team_id) DO UPDATE SET score = EXCLUDED.score, updated_at = now()`

	if _, err := exec.ExecContext(ctx, query, matchID, teamID, score); err != nil {
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) CreateEdge(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int) error {
	_, err := exec.ExecContext(ctx, `INSERT INTO bracket_matches (match_id, next_match_id) VALUES ($1, $2)`, matchID, nextMatchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) conflictOrNotFound(ctx context.Context, exec SQLExecutor, id int) error {
	var current int
	err := exec.QueryRowContext(ctx, `SELECT version FROM matches WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to re-read match %d version: %w", id, err)
	}
	return &VersionConflictError{CurrentVersion: current}
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "match_teams_team_id_fkey", "match_team_scores_team_id_fkey":
			return ErrMatchTeamInvalid
		case "bracket_matches_match_id_fkey", "bracket_matches_next_match_id_fkey":
			return ErrBracketEdgeInvalid
		}
	}
	return err
}

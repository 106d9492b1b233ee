package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ldemarco/olympiad-system/models"
)

var ErrStageNotFound = errors.New("stage not found")

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	ListByEvent(ctx context.Context, eventID int) ([]*models.Stage, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.StageStatus) error
	ListKinds(ctx context.Context) ([]models.StageKindInfo, error)

	CreateGroup(ctx context.Context, exec SQLExecutor, stageID int) (int, error)
	AddGroupTeam(ctx context.Context, exec SQLExecutor, groupID, teamID int) error
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

func (r *postgresStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	query := `
		INSERT INTO event_stages (event_id, kind, stage_order, advance_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status`

	err := exec.QueryRowContext(ctx, query, stage.EventID, stage.Kind, stage.StageOrder, stage.AdvanceCount).
		Scan(&stage.ID, &stage.Status)
	if err != nil {
		return fmt.Errorf("failed to create stage for event %d: %w", stage.EventID, err)
	}
	return nil
}

func (r *postgresStageRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Stage, error) {
	query := `
		SELECT id, event_id, kind, status, stage_order, advance_count
		FROM event_stages
		WHERE event_id = $1
		ORDER BY stage_order`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages for event %d: %w", eventID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		var s models.Stage
		if err := rows.Scan(&s.ID, &s.EventID, &s.Kind, &s.Status, &s.StageOrder, &s.AdvanceCount); err != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", err)
		}
		stages = append(stages, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stage rows iteration: %w", err)
	}
	return stages, nil
}

func (r *postgresStageRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.StageStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE event_stages SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for stage %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

func (r *postgresStageRepository) ListKinds(ctx context.Context) ([]models.StageKindInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, label FROM stage_kinds ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage kinds: %w", err)
	}
	defer rows.Close()

	kinds := make([]models.StageKindInfo, 0)
	for rows.Next() {
		var k models.StageKindInfo
		if err := rows.Scan(&k.Kind, &k.Label); err != nil {
			return nil, fmt.Errorf("failed to scan stage kind row: %w", err)
		}
		kinds = append(kinds, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stage kind rows iteration: %w", err)
	}
	return kinds, nil
}

func (r *postgresStageRepository) CreateGroup(ctx context.Context, exec SQLExecutor, stageID int) (int, error) {
	var id int
	err := exec.QueryRowContext(ctx, `INSERT INTO groups (event_stage_id) VALUES ($1) RETURNING id`, stageID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create group for stage %d: %w", stageID, err)
	}
	return id, nil
}

func (r *postgresStageRepository) AddGroupTeam(ctx context.Context, exec SQLExecutor, groupID, teamID int) error {
	_, err := exec.ExecContext(ctx, `INSERT INTO group_teams (group_id, team_id) VALUES ($1, $2)`, groupID, teamID)
	if err != nil {
		return fmt.Errorf("failed to add team %d to group %d: %w", teamID, groupID, err)
	}
	return nil
}

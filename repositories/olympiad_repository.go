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
	ErrOlympiadNotFound     = errors.New("olympiad not found")
	ErrOlympiadNameConflict = errors.New("olympiad name already in use")
)

type OlympiadRepository interface {
	List(ctx context.Context) ([]*models.Olympiad, error)
	GetByID(ctx context.Context, id int) (*models.Olympiad, error)
	// GetForUpdate takes a row lock so a read-check-write sequence inside
	// a transaction cannot interleave with a concurrent writer.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Olympiad, error)
	Create(ctx context.Context, olympiad *models.Olympiad) error
	UpdateName(ctx context.Context, exec SQLExecutor, id int, name string, expectedVersion int) (*models.Olympiad, error)
	Delete(ctx context.Context, exec SQLExecutor, id int, expectedVersion int) error
}

type postgresOlympiadRepository struct {
	db *sql.DB
}

func NewPostgresOlympiadRepository(db *sql.DB) OlympiadRepository {
	return &postgresOlympiadRepository{db: db}
}

const olympiadColumns = `id, name, pin_hash, version, created_at, updated_at`

func scanOlympiad(row *sql.Row) (*models.Olympiad, error) {
	o := &models.Olympiad{}
	err := row.Scan(&o.ID, &o.Name, &o.PINHash, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresOlympiadRepository) List(ctx context.Context) ([]*models.Olympiad, error) {
	query := `SELECT ` + olympiadColumns + ` FROM olympiads ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query olympiads: %w", err)
	}
	defer rows.Close()

	olympiads := make([]*models.Olympiad, 0)
	for rows.Next() {
		var o models.Olympiad
		if err := rows.Scan(&o.ID, &o.Name, &o.PINHash, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan olympiad row: %w", err)
		}
		olympiads = append(olympiads, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during olympiad rows iteration: %w", err)
	}
	return olympiads, nil
}

func (r *postgresOlympiadRepository) GetByID(ctx context.Context, id int) (*models.Olympiad, error) {
	query := `SELECT ` + olympiadColumns + ` FROM olympiads WHERE id = $1`

	o, err := scanOlympiad(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOlympiadNotFound
		}
		return nil, fmt.Errorf("failed to scan olympiad %d: %w", id, err)
	}
	return o, nil
}

func (r *postgresOlympiadRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Olympiad, error) {
	query := `SELECT ` + olympiadColumns + ` FROM olympiads WHERE id = $1 FOR UPDATE`

	o, err := scanOlympiad(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOlympiadNotFound
		}
		return nil, fmt.Errorf("failed to lock olympiad %d: %w", id, err)
	}
	return o, nil
}

func (r *postgresOlympiadRepository) Create(ctx context.Context, olympiad *models.Olympiad) error {
	query := `
		INSERT INTO olympiads (name, pin_hash)
		VALUES ($1, $2)
		RETURNING id, version, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, olympiad.Name, olympiad.PINHash).
		Scan(&olympiad.ID, &olympiad.Version, &olympiad.CreatedAt, &olympiad.UpdatedAt)
	return r.handleOlympiadError(err)
}

// UpdateName applies the rename only when the stored version still equals
// expectedVersion, bumping the version in the same statement. Zero rows
// means either a stale precondition or a vanished row; the re-read below
// tells the two apart.
func (r *postgresOlympiadRepository) UpdateName(ctx context.Context, exec SQLExecutor, id int, name string, expectedVersion int) (*models.Olympiad, error) {
	query := `
		UPDATE olympiads
		SET name = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		RETURNING ` + olympiadColumns

	o, err := scanOlympiad(exec.QueryRowContext(ctx, query, name, id, expectedVersion))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, exec, id)
		}
		return nil, r.handleOlympiadError(err)
	}
	return o, nil
}

// Delete removes the row only when the stored version still matches.
// Cascades handle owned players, teams, events and matches.
func (r *postgresOlympiadRepository) Delete(ctx context.Context, exec SQLExecutor, id int, expectedVersion int) error {
	query := `DELETE FROM olympiads WHERE id = $1 AND version = $2`

	result, err := exec.ExecContext(ctx, query, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete olympiad %d: %w", id, err)
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

func (r *postgresOlympiadRepository) conflictOrNotFound(ctx context.Context, exec SQLExecutor, id int) error {
	var current int
	err := exec.QueryRowContext(ctx, `SELECT version FROM olympiads WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOlympiadNotFound
		}
		return fmt.Errorf("failed to re-read olympiad %d version: %w", id, err)
	}
	return &VersionConflictError{CurrentVersion: current}
}

func (r *postgresOlympiadRepository) handleOlympiadError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "olympiads_name_key" {
			return ErrOlympiadNameConflict
		}
	}
	return err
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx, so repository
// writes can run inside a caller-owned transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// VersionConflictError reports an optimistic-locking mismatch. It always
// carries the version currently stored so the caller can re-fetch and
// retry with a fresh precondition.
type VersionConflictError struct {
	CurrentVersion int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: resource is at version %d", e.CurrentVersion)
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/Kerhoff/listshare/internal/repository"
)

// psql builds statements with Postgres placeholders
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// wrapWrite maps a unique violation to repository.ErrDuplicate and wraps
// anything else with the failed action
func wrapWrite(action string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w", action, repository.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// expectAffected returns repository.ErrNotFound when a write touched no rows
func expectAffected(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, repository.ErrNotFound)
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

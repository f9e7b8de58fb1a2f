package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"titledesk/internal/domain"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 = foreign_key_violation
		return pgErr.Code == "23503"
	}
	return false
}

// wrapNotFound converts pgx.ErrNoRows into a domain not-found error, and
// wraps anything else with op for context.
func wrapNotFound(err error, op, resource, id string) error {
	if IsPgNoRowsError(err) {
		return fmt.Errorf("%s %s: %w", resource, id, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapWriteError maps constraint violations on insert/update to domain errors.
func wrapWriteError(err error, op, resource, conflictMsg string) error {
	switch {
	case IsPgDuplicateError(err):
		return &domain.ConflictError{Message: conflictMsg, ResourceType: resource}
	case IsPgForeignKeyError(err):
		return fmt.Errorf("%s: referenced record does not exist: %w", resource, domain.ErrValidation)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

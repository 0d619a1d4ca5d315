package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors. target names the
// failing document or operation, e.g. "quotes/abc".
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func MapError(err error, op, target string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", op, target, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, target, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", op, target, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", op, target, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", op, target, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", op, target, err)
}

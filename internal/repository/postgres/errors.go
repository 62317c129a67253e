package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Pesokrava/park_reviewer/internal/domain"
)

// mapError converts database/sql and lib/pq errors to domain errors.
// Timeouts, cancellations and connection failures become domain.ErrUnavailable.
func mapError(err error, entity string, id interface{}) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrUnavailable, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
	}

	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrInvalidInput)
		case "57014": // query_canceled (statement_timeout)
			return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrUnavailable, err)
		}
		if pqErr.Code.Class() == "08" { // connection_exception
			return fmt.Errorf("%s %v: %w: %w", entity, id, domain.ErrUnavailable, err)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, id, err)
}

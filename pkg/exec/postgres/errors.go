package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/strataorm/strata/pkg/exec"
)

// mapDatabaseError converts PostgreSQL errors into the core's exec.Error
// taxonomy. Unknown errors are wrapped as Internal so nothing is silently
// reclassified.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapDatabaseError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &exec.Error{Kind: exec.Timeout, Err: err}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return &exec.Error{Kind: exec.ConnectionFailure, Err: err}
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return &exec.Error{
			Kind:       exec.ConstraintViolation,
			Constraint: "unique",
			Field:      constraintField(pgErr),
			Err:        err,
		}
	case "23503": // foreign_key_violation
		return &exec.Error{
			Kind:       exec.ConstraintViolation,
			Constraint: "foreign_key",
			Field:      constraintField(pgErr),
			Err:        err,
		}
	case "23502": // not_null_violation
		field := pgErr.ColumnName
		if field == "" {
			field = extractQuoted(pgErr.Message)
		}
		return &exec.Error{
			Kind:       exec.ConstraintViolation,
			Constraint: "not_null",
			Field:      field,
			Err:        err,
		}
	case "57014": // query_canceled
		return &exec.Error{Kind: exec.Timeout, Err: err}
	}

	// Class 08 covers connection exceptions.
	if strings.HasPrefix(pgErr.Code, "08") {
		return &exec.Error{Kind: exec.ConnectionFailure, Err: err}
	}

	return &exec.Error{Kind: exec.Internal, Err: err}
}

// constraintField extracts the field name from a constraint error detail.
// Detail format: `Key (email)=(test@mail.com) already exists.`
func constraintField(pgErr *pgconn.PgError) string {
	detail := pgErr.Detail
	start := strings.Index(detail, "(")
	end := strings.Index(detail, ")")
	if start >= 0 && end > start {
		return detail[start+1 : end]
	}
	return ""
}

// extractQuoted returns the first double-quoted token in a message.
// Input: `null value in column "name" violates not-null constraint`
func extractQuoted(message string) string {
	start := strings.Index(message, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(message[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return message[start+1 : start+1+end]
}

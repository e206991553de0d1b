package exec

import (
	"errors"
	"fmt"
)

// Kind classifies an execution error. The core distinguishes exactly these
// cases; everything else a backend produces is wrapped as Internal.
type Kind int

const (
	Internal Kind = iota
	ConstraintViolation
	NotFound
	ConnectionFailure
	Timeout
)

func (k Kind) String() string {
	switch k {
	case ConstraintViolation:
		return "constraint violation"
	case NotFound:
		return "not found"
	case ConnectionFailure:
		return "connection failure"
	case Timeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is an infrastructure-level failure from a backend. For constraint
// violations Field names the offending column and Constraint the class
// ("unique", "foreign_key", "not_null").
type Error struct {
	Kind       Kind
	Field      string
	Constraint string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == ConstraintViolation && e.Field != "":
		return fmt.Sprintf("exec: %s constraint violation on field %q", e.Constraint, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("exec: %s: %v", e.Kind, e.Err)
	default:
		return "exec: " + e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound returns true when err is an execution error of kind NotFound.
func IsNotFound(err error) bool { return hasKind(err, NotFound) }

// IsTimeout returns true when err is an execution error of kind Timeout.
func IsTimeout(err error) bool { return hasKind(err, Timeout) }

// IsConnectionFailure returns true for connection-level failures.
func IsConnectionFailure(err error) bool { return hasKind(err, ConnectionFailure) }

// IsConstraintViolation returns true for constraint violations.
func IsConstraintViolation(err error) bool { return hasKind(err, ConstraintViolation) }

func hasKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

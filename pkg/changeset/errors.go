package changeset

import (
	"fmt"
	"strings"
)

// InvalidError is returned by Apply when the changeset carries errors.
// Apply is all-or-nothing: no change is ever partially merged.
type InvalidError struct {
	Errors []FieldError
}

func (e *InvalidError) Error() string {
	if len(e.Errors) == 0 {
		return "changeset is invalid"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s %s", fe.Field, fe.Message)
	}
	return "changeset is invalid: " + strings.Join(parts, "; ")
}

// IsInvalid returns true if the error is an InvalidError.
func IsInvalid(err error) bool {
	_, ok := err.(*InvalidError)
	return ok
}

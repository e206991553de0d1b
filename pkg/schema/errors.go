package schema

import "fmt"

// CastError reports that a raw value could not be converted to a field's
// declared type. It is a value-shape mismatch, recoverable by the caller;
// the changeset layer turns it into a field error rather than a hard failure.
type CastError struct {
	Type  FieldType
	Value interface{}
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %v (%T) to %s", e.Value, e.Value, e.Type)
}

// DuplicateFieldError reports two fields with the same name in one definition.
type DuplicateFieldError struct {
	Definition string
	Field      string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("definition %q declares field %q more than once", e.Definition, e.Field)
}

// PrimaryKeyError reports a definition with zero or multiple primary keys.
type PrimaryKeyError struct {
	Definition string
	Count      int
}

func (e *PrimaryKeyError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("definition %q has no primary key (set WithoutPrimaryKey to allow)", e.Definition)
	}
	return fmt.Sprintf("definition %q has %d primary keys, want exactly one", e.Definition, e.Count)
}

// ConflictError reports re-registration of a kind with different metadata.
type ConflictError struct {
	Definition string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("kind %q is already registered with conflicting metadata", e.Definition)
}

// UnknownKindError reports a lookup for a kind that was never registered.
type UnknownKindError struct {
	Name string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown record kind %q", e.Name)
}

// UnknownFieldError reports an attempt to use a field that does not exist
// on a registered kind.
type UnknownFieldError struct {
	Kind  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q on kind %q", e.Field, e.Kind)
}

// IsCastError returns true if the error is a CastError.
func IsCastError(err error) bool {
	_, ok := err.(*CastError)
	return ok
}

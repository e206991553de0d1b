package query

import "fmt"

// Query errors are programmer-level misuse: they surface as hard failures
// at build or plan time and are never accumulated the way changeset
// errors are.

// UnknownFieldError reports a predicate, order, group or select reference
// to a field the source kind does not declare.
type UnknownFieldError struct {
	Kind  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("query references unknown field %q on kind %q", e.Field, e.Kind)
}

// BindTypeError reports a bound value whose inferred kind disagrees with
// the declared type of the field it is compared against.
type BindTypeError struct {
	Field     string
	FieldKind string
	BoundKind string
}

func (e *BindTypeError) Error() string {
	bound := e.BoundKind
	if bound == "" {
		bound = "unsupported"
	}
	return fmt.Sprintf("cannot compare field %q (%s) against bound value of kind %s", e.Field, e.FieldKind, bound)
}

// IncomparableFieldsError reports a field-to-field comparison whose two
// declared types cannot be compared.
type IncomparableFieldsError struct {
	Left      string
	LeftKind  string
	Right     string
	RightKind string
}

func (e *IncomparableFieldsError) Error() string {
	return fmt.Sprintf("cannot compare field %q (%s) against field %q (%s)",
		e.Left, e.LeftKind, e.Right, e.RightKind)
}

// AmbiguousSourceError reports a merge of fragments with different sources.
type AmbiguousSourceError struct {
	First  string
	Second string
}

func (e *AmbiguousSourceError) Error() string {
	return fmt.Sprintf("merged query has ambiguous source: %q and %q", e.First, e.Second)
}

// MissingSourceError reports planning a query that never gained a source.
type MissingSourceError struct{}

func (e *MissingSourceError) Error() string {
	return "query has no source; start with From or merge with a sourced fragment"
}

// UnknownJoinTargetError reports a join against an unregistered kind.
type UnknownJoinTargetError struct {
	Target string
}

func (e *UnknownJoinTargetError) Error() string {
	return fmt.Sprintf("join target %q is not a registered kind", e.Target)
}

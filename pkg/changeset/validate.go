package changeset

import (
	"context"
	"fmt"
	"regexp"

	"github.com/strataorm/strata/pkg/schema"
)

// Validators run only against fields that actually changed in this round:
// an unchanged or absent field is never validated, no matter what the base
// record holds. Failures accumulate; nothing short-circuits, so one pass
// reports every problem at once. Each validator returns a new changeset.

// ValidateFormat appends an error unless the changed string value matches re.
func (cs *Changeset) ValidateFormat(field string, re *regexp.Regexp) *Changeset {
	v, ok := cs.changes[field]
	if !ok {
		return cs
	}
	s, isStr := v.(string)
	if isStr && re.MatchString(s) {
		return cs
	}
	return cs.AddError(field, "has invalid format", map[string]interface{}{"format": re.String()})
}

// ValidateInclusion appends an error unless the changed value is one of allowed.
func (cs *Changeset) ValidateInclusion(field string, allowed ...interface{}) *Changeset {
	v, ok := cs.changes[field]
	if !ok {
		return cs
	}
	for _, a := range allowed {
		if valueEqual(v, a) {
			return cs
		}
	}
	return cs.AddError(field, "is invalid", map[string]interface{}{"inclusion": allowed})
}

// ValidateExclusion appends an error when the changed value is one of reserved.
func (cs *Changeset) ValidateExclusion(field string, reserved ...interface{}) *Changeset {
	v, ok := cs.changes[field]
	if !ok {
		return cs
	}
	for _, r := range reserved {
		if valueEqual(v, r) {
			return cs.AddError(field, "is reserved", map[string]interface{}{"exclusion": reserved})
		}
	}
	return cs
}

// ValidateLength bounds the length of a changed string value. A negative
// bound is ignored.
func (cs *Changeset) ValidateLength(field string, min, max int) *Changeset {
	v, ok := cs.changes[field]
	if !ok {
		return cs
	}
	s, isStr := v.(string)
	if !isStr {
		return cs.AddError(field, "is invalid", map[string]interface{}{"type": "String"})
	}
	n := len([]rune(s))
	if min >= 0 && n < min {
		return cs.AddError(field, fmt.Sprintf("should be at least %d character(s)", min),
			map[string]interface{}{"min": min, "actual": n})
	}
	if max >= 0 && n > max {
		return cs.AddError(field, fmt.Sprintf("should be at most %d character(s)", max),
			map[string]interface{}{"max": max, "actual": n})
	}
	return cs
}

// NumberOpt is a bound check used by ValidateNumber.
type NumberOpt func(float64) (string, bool)

// Min requires the value to be >= n.
func Min(n float64) NumberOpt {
	return func(v float64) (string, bool) {
		return fmt.Sprintf("must be greater than or equal to %v", n), v >= n
	}
}

// Max requires the value to be <= n.
func Max(n float64) NumberOpt {
	return func(v float64) (string, bool) {
		return fmt.Sprintf("must be less than or equal to %v", n), v <= n
	}
}

// GreaterThan requires the value to be > n.
func GreaterThan(n float64) NumberOpt {
	return func(v float64) (string, bool) {
		return fmt.Sprintf("must be greater than %v", n), v > n
	}
}

// LessThan requires the value to be < n.
func LessThan(n float64) NumberOpt {
	return func(v float64) (string, bool) {
		return fmt.Sprintf("must be less than %v", n), v < n
	}
}

// ValidateNumber applies numeric bound checks to a changed int or float value.
func (cs *Changeset) ValidateNumber(field string, opts ...NumberOpt) *Changeset {
	v, ok := cs.changes[field]
	if !ok {
		return cs
	}
	var n float64
	switch x := v.(type) {
	case int64:
		n = float64(x)
	case float64:
		n = x
	default:
		return cs.AddError(field, "is invalid", map[string]interface{}{"type": "number"})
	}
	out := cs
	for _, opt := range opts {
		if msg, pass := opt(n); !pass {
			out = out.AddError(field, msg, map[string]interface{}{"number": n})
		}
	}
	return out
}

// ValidateChange runs an arbitrary rule against a changed value. The rule
// returns an error message, or "" when the value is acceptable.
func (cs *Changeset) ValidateChange(field string, rule func(value interface{}) string) *Changeset {
	v, ok := cs.changes[field]
	if !ok {
		return cs
	}
	if msg := rule(v); msg != "" {
		return cs.AddError(field, msg, nil)
	}
	return cs
}

// ValidateRequired re-checks that each field has a value either staged or
// on the base record. Useful after programmatic Change.
func (cs *Changeset) ValidateRequired(fields ...string) *Changeset {
	out := cs
	for _, field := range fields {
		if out.Get(field) == nil && !out.hasError(field) {
			out = out.AddError(field, "can't be blank", nil)
		}
	}
	return out
}

// UniqueChecker is the narrow boundary a uniqueness check needs from the
// execution layer: does any stored record of desc carry value in field.
type UniqueChecker interface {
	Exists(ctx context.Context, desc *schema.Descriptor, field string, value interface{}) (bool, error)
}

// ValidateUnique checks a changed value against storage through checker.
// It is the one validator that crosses the execution boundary and is
// therefore fallible: a failed or cancelled lookup returns the changeset
// unmodified together with a hard error, never a field error, so
// infrastructure trouble is not mistaken for invalid input.
func (cs *Changeset) ValidateUnique(ctx context.Context, field string, checker UniqueChecker) (*Changeset, error) {
	v, ok := cs.changes[field]
	if !ok {
		return cs, nil
	}
	taken, err := checker.Exists(ctx, cs.base.Descriptor(), field, v)
	if err != nil {
		return cs, fmt.Errorf("unique check on %q: %w", field, err)
	}
	if taken {
		return cs.AddError(field, "has already been taken", map[string]interface{}{"constraint": "unique"}), nil
	}
	return cs, nil
}

// Package changeset stages, casts and validates untrusted input before it
// is allowed to mutate a record. A changeset is a value: every operation
// returns a new changeset and never mutates its receiver, so a partially
// built changeset can be reused and pipelines stay testable.
package changeset

import (
	"reflect"

	"github.com/strataorm/strata/pkg/schema"
)

// FieldError is a single accumulated validation or cast error.
type FieldError struct {
	Field   string
	Message string
	Meta    map[string]interface{}
}

// Changeset is a staged, validated proposal to mutate a record.
//
// Invariants:
//   - Valid() == (len(Errors()) == 0)
//   - a field appears in Changes() only when its cast succeeded and the new
//     value differs from the base record
type Changeset struct {
	base     *schema.Record
	params   map[string]interface{}
	changes  map[string]interface{}
	assocs   map[string][]*schema.Record
	errors   []FieldError
	required []string
}

// Cast builds a changeset from a base record and raw untrusted params.
//
// Only fields listed in required or optional are considered; any other
// param key is silently ignored (allow-list against mass assignment). A
// field listed in both sets is cast once. An explicit nil param is a
// successful "no value" cast: it stages a change clearing a non-nil base
// field, which for required fields fails the blank check.
// A failed cast appends (field, "is invalid"); a required field blank
// after casting appends (field, "can't be blank").
//
// Listing a field that does not exist on the base record's descriptor is
// programmer misuse and panics.
func Cast(base *schema.Record, params map[string]interface{}, required, optional []string) *Changeset {
	cs := &Changeset{
		base:     base,
		params:   params,
		changes:  make(map[string]interface{}),
		assocs:   make(map[string][]*schema.Record),
		required: append([]string(nil), required...),
	}

	desc := base.Descriptor()
	seen := make(map[string]bool, len(required)+len(optional))
	castOne := func(field string) {
		if seen[field] {
			return
		}
		seen[field] = true
		spec := desc.Field(field)
		if spec == nil {
			panic(&schema.UnknownFieldError{Kind: desc.Name(), Field: field})
		}
		raw, ok := params[field]
		if !ok {
			return
		}
		v, err := schema.Cast(spec.Type, raw)
		if err != nil {
			cs.errors = append(cs.errors, FieldError{
				Field:   field,
				Message: "is invalid",
				Meta:    map[string]interface{}{"type": spec.Type.Kind},
			})
			return
		}
		if !valueEqual(v, base.Get(field)) {
			cs.changes[field] = v
		}
	}

	for _, field := range required {
		castOne(field)
		if cs.hasError(field) {
			continue
		}
		if v, staged := cs.changes[field]; staged {
			if v == nil {
				cs.errors = append(cs.errors, FieldError{Field: field, Message: "can't be blank"})
			}
			continue
		}
		if base.Get(field) == nil {
			cs.errors = append(cs.errors, FieldError{Field: field, Message: "can't be blank"})
		}
	}
	for _, field := range optional {
		castOne(field)
	}

	return cs
}

// Change creates a changeset carrying already-typed changes, bypassing the
// cast step. Values must be of the field's typed representation.
func Change(base *schema.Record, changes map[string]interface{}) *Changeset {
	cs := &Changeset{
		base:    base,
		changes: make(map[string]interface{}, len(changes)),
		assocs:  make(map[string][]*schema.Record),
	}
	desc := base.Descriptor()
	for field, v := range changes {
		if desc.Field(field) == nil {
			panic(&schema.UnknownFieldError{Kind: desc.Name(), Field: field})
		}
		if !valueEqual(v, base.Get(field)) {
			cs.changes[field] = v
		}
	}
	return cs
}

// Base returns the record the changeset was built from.
func (cs *Changeset) Base() *schema.Record { return cs.base }

// Valid reports whether no errors have accumulated.
func (cs *Changeset) Valid() bool { return len(cs.errors) == 0 }

// Errors returns the accumulated errors in append order.
func (cs *Changeset) Errors() []FieldError {
	return append([]FieldError(nil), cs.errors...)
}

// Changes returns the fields that actually changed, with their cast values.
func (cs *Changeset) Changes() map[string]interface{} {
	out := make(map[string]interface{}, len(cs.changes))
	for k, v := range cs.changes {
		out[k] = v
	}
	return out
}

// Changed reports whether the field has a staged change.
func (cs *Changeset) Changed(field string) bool {
	_, ok := cs.changes[field]
	return ok
}

// Get returns the staged change for field, falling back to the base value.
func (cs *Changeset) Get(field string) interface{} {
	if v, ok := cs.changes[field]; ok {
		return v
	}
	return cs.base.Get(field)
}

// AddError returns a changeset with one more error appended. All prior
// errors are preserved; nothing short-circuits.
func (cs *Changeset) AddError(field, message string, meta map[string]interface{}) *Changeset {
	out := cs.clone()
	out.errors = append(out.errors, FieldError{Field: field, Message: message, Meta: meta})
	return out
}

// AddConstraintError maps a commit-time constraint violation reported by
// the storage backend onto the changeset, so callers can re-render the
// changeset instead of surfacing an infrastructure error.
func (cs *Changeset) AddConstraintError(field, constraint string) *Changeset {
	message := "violates constraint"
	switch constraint {
	case "unique":
		message = "has already been taken"
	case "foreign_key":
		message = "does not exist"
	case "not_null":
		message = "can't be blank"
	}
	return cs.AddError(field, message, map[string]interface{}{"constraint": constraint})
}

// PutAssoc stages an association change. Apply replaces the association
// slot on the result; only associations staged this way lose their
// unloaded marker. Unknown association names panic.
func (cs *Changeset) PutAssoc(name string, records []*schema.Record) *Changeset {
	if cs.base.Descriptor().Association(name) == nil {
		panic(&schema.UnknownFieldError{Kind: cs.base.Descriptor().Name(), Field: name})
	}
	out := cs.clone()
	out.assocs[name] = append([]*schema.Record(nil), records...)
	return out
}

// Apply merges the staged changes into a copy of the base record.
// It is all-or-nothing: an invalid changeset returns *InvalidError and no
// record is produced.
func (cs *Changeset) Apply() (*schema.Record, error) {
	if !cs.Valid() {
		return nil, &InvalidError{Errors: cs.Errors()}
	}
	out := cs.base
	var err error
	for field, v := range cs.changes {
		out, err = out.Set(field, v)
		if err != nil {
			return nil, err
		}
	}
	for name, records := range cs.assocs {
		out, err = out.WithAssociation(name, records)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (cs *Changeset) hasError(field string) bool {
	for _, e := range cs.errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (cs *Changeset) clone() *Changeset {
	out := &Changeset{
		base:     cs.base,
		params:   cs.params,
		changes:  make(map[string]interface{}, len(cs.changes)),
		assocs:   make(map[string][]*schema.Record, len(cs.assocs)),
		errors:   append([]FieldError(nil), cs.errors...),
		required: cs.required,
	}
	for k, v := range cs.changes {
		out.changes[k] = v
	}
	for k, v := range cs.assocs {
		out.assocs[k] = v
	}
	return out
}

func valueEqual(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

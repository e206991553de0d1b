// Package exec defines the boundary between the changeset/query core and a
// storage backend. The core hands a backend a planned statement or a valid
// changeset and gets rows or a typed error back; everything behind the
// Facade interface (pooling, transactions, dialects) is the backend's
// problem.
package exec

import (
	"context"
	"errors"

	"github.com/strataorm/strata/pkg/changeset"
	"github.com/strataorm/strata/pkg/query"
	"github.com/strataorm/strata/pkg/schema"
)

// Facade is the narrow contract a backend driver implements.
type Facade interface {
	// Execute runs a planned read statement and returns the matching records.
	Execute(ctx context.Context, stmt *query.PlannedStatement) ([]*schema.Record, error)

	// Apply writes a valid changeset: insert when the base record has no
	// primary key value, update otherwise. Returns the stored record.
	Apply(ctx context.Context, cs *changeset.Changeset) (*schema.Record, error)

	// Delete removes the record identified by its primary key.
	Delete(ctx context.Context, rec *schema.Record) error
}

// ApplyChangeset writes cs through f, translating a commit-time constraint
// violation back into a changeset error instead of an infrastructure
// failure. On success the stored record is returned. On a constraint
// violation the returned changeset is invalid and err is nil; the caller
// inspects it the same way as a validation failure. Every other error
// passes through unmodified.
func ApplyChangeset(ctx context.Context, f Facade, cs *changeset.Changeset) (*schema.Record, *changeset.Changeset, error) {
	rec, err := f.Apply(ctx, cs)
	if err == nil {
		return rec, cs, nil
	}
	var execErr *Error
	if errors.As(err, &execErr) && execErr.Kind == ConstraintViolation {
		return nil, cs.AddConstraintError(execErr.Field, execErr.Constraint), nil
	}
	return nil, cs, err
}

// NewUniqueChecker adapts a Facade into the checker interface the
// changeset's uniqueness validator expects, by planning a one-row filtered
// lookup.
func NewUniqueChecker(f Facade, reg *schema.Registry) changeset.UniqueChecker {
	return &uniqueChecker{f: f, reg: reg}
}

type uniqueChecker struct {
	f   Facade
	reg *schema.Registry
}

func (u *uniqueChecker) Exists(ctx context.Context, desc *schema.Descriptor, field string, value interface{}) (bool, error) {
	q := query.From(desc).
		Where(query.EQ(field, query.Bind(value))).
		Limit(1)
	stmt, err := query.Plan(q, u.reg)
	if err != nil {
		return false, err
	}
	records, err := u.f.Execute(ctx, stmt)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

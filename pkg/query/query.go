package query

import "github.com/strataorm/strata/pkg/schema"

// Direction orders a sort term.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderTerm is a single ORDER BY entry.
type OrderTerm struct {
	Field     string
	Direction Direction
}

// JoinKind selects the join flavor.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
)

// Join relates the source to a target kind through an ON predicate.
// TargetSource is the target's storage source name, filled in at plan time.
type Join struct {
	Kind         JoinKind
	Target       string
	TargetSource string
	On           Expr
}

// Query is an immutable, composable query value. Every builder method
// returns a new Query and never mutates its receiver, so a partial query
// can be extended along several paths safely.
//
// A builder-time violation (unknown field, incompatible bound value) does
// not panic: it poisons the query, the first error sticks, and Plan
// surfaces it before anything reaches a backend.
type Query struct {
	source *schema.Descriptor

	wheres   []Expr
	havings  []Expr
	orders   []OrderTerm
	groups   []string
	joins    []Join
	selects  []string
	preloads []string

	limit    *int
	offset   *int
	distinct *bool

	err error
}

// From starts a query over the given kind.
func From(desc *schema.Descriptor) Query {
	return Query{source: desc}
}

// Err returns the first builder-time error, if any.
func (q Query) Err() error { return q.err }

// Source returns the query's source descriptor, or nil for a fragment.
func (q Query) Source() *schema.Descriptor { return q.source }

// Where narrows the query with a predicate. Multiple Where calls combine
// with AND.
func (q Query) Where(pred Expr) Query {
	if q.err != nil {
		return q
	}
	if q.source != nil {
		if err := validateExpr(q.source, pred); err != nil {
			q.err = err
			return q
		}
	}
	q.wheres = appendExpr(q.wheres, pred)
	return q
}

// Having narrows grouped results with a predicate; multiple calls AND.
func (q Query) Having(pred Expr) Query {
	if q.err != nil {
		return q
	}
	if q.source != nil {
		if err := validateExpr(q.source, pred); err != nil {
			q.err = err
			return q
		}
	}
	q.havings = appendExpr(q.havings, pred)
	return q
}

// OrderBy appends a sort term.
func (q Query) OrderBy(field string, dir Direction) Query {
	if q.err != nil {
		return q
	}
	if q.source != nil && q.source.Field(field) == nil {
		q.err = &UnknownFieldError{Kind: q.source.Name(), Field: field}
		return q
	}
	orders := make([]OrderTerm, len(q.orders), len(q.orders)+1)
	copy(orders, q.orders)
	q.orders = append(orders, OrderTerm{Field: field, Direction: dir})
	return q
}

// GroupBy appends grouping fields.
func (q Query) GroupBy(fields ...string) Query {
	if q.err != nil {
		return q
	}
	if q.source != nil {
		for _, f := range fields {
			if q.source.Field(f) == nil {
				q.err = &UnknownFieldError{Kind: q.source.Name(), Field: f}
				return q
			}
		}
	}
	q.groups = appendStrings(q.groups, fields...)
	return q
}

// Join appends a join to target with the given ON predicate. The predicate
// is resolved at plan time, when the target descriptor is available.
func (q Query) Join(kind JoinKind, target string, on Expr) Query {
	if q.err != nil {
		return q
	}
	joins := make([]Join, len(q.joins), len(q.joins)+1)
	copy(joins, q.joins)
	q.joins = append(joins, Join{Kind: kind, Target: target, On: on})
	return q
}

// Select restricts the projection to the given fields.
func (q Query) Select(fields ...string) Query {
	if q.err != nil {
		return q
	}
	if q.source != nil {
		for _, f := range fields {
			if q.source.Field(f) == nil {
				q.err = &UnknownFieldError{Kind: q.source.Name(), Field: f}
				return q
			}
		}
	}
	q.selects = appendStrings(q.selects, fields...)
	return q
}

// Preload marks associations for eager loading.
func (q Query) Preload(assocs ...string) Query {
	if q.err != nil {
		return q
	}
	if q.source != nil {
		for _, a := range assocs {
			if q.source.Association(a) == nil {
				q.err = &UnknownFieldError{Kind: q.source.Name(), Field: a}
				return q
			}
		}
	}
	q.preloads = appendStrings(q.preloads, assocs...)
	return q
}

// Limit caps the result set. Later calls override earlier ones.
func (q Query) Limit(n int) Query {
	if q.err != nil {
		return q
	}
	q.limit = &n
	return q
}

// Offset skips the first n rows. Later calls override earlier ones.
func (q Query) Offset(n int) Query {
	if q.err != nil {
		return q
	}
	q.offset = &n
	return q
}

// Distinct toggles duplicate elimination. Later calls override earlier ones.
func (q Query) Distinct(on bool) Query {
	if q.err != nil {
		return q
	}
	q.distinct = &on
	return q
}

func appendExpr(dst []Expr, e Expr) []Expr {
	out := make([]Expr, len(dst), len(dst)+1)
	copy(out, dst)
	return append(out, e)
}

func appendStrings(dst []string, ss ...string) []string {
	out := make([]string, len(dst), len(dst)+len(ss))
	copy(out, dst)
	return append(out, ss...)
}

package query

import (
	"strings"

	"github.com/strataorm/strata/pkg/schema"
)

// PlannedStatement is the finalized artifact produced by Plan: immutable,
// fully resolved, ready to hand to an execution backend. Bound parameters
// stay out-of-band; backends render placeholders and ship the values
// separately.
type PlannedStatement struct {
	source *schema.Descriptor

	where    Expr // single AND-combined predicate, or nil
	having   Expr
	orders   []OrderTerm
	groups   []string
	joins    []Join
	selects  []string
	preloads []string

	limit    *int
	offset   *int
	distinct bool
}

// Source returns the statement's source descriptor.
func (p *PlannedStatement) Source() *schema.Descriptor { return p.source }

// Where returns the canonical AND-combined filter predicate, or nil.
func (p *PlannedStatement) Where() Expr { return p.where }

// Having returns the canonical AND-combined having predicate, or nil.
func (p *PlannedStatement) Having() Expr { return p.having }

// Orders returns the sort terms in append order.
func (p *PlannedStatement) Orders() []OrderTerm { return append([]OrderTerm(nil), p.orders...) }

// Groups returns the grouping fields in append order.
func (p *PlannedStatement) Groups() []string { return append([]string(nil), p.groups...) }

// Joins returns the joins in append order.
func (p *PlannedStatement) Joins() []Join { return append([]Join(nil), p.joins...) }

// Selects returns the projection, or nil for all fields.
func (p *PlannedStatement) Selects() []string { return append([]string(nil), p.selects...) }

// Preloads returns the associations marked for eager loading.
func (p *PlannedStatement) Preloads() []string { return append([]string(nil), p.preloads...) }

// Limit returns the row cap and whether one was set.
func (p *PlannedStatement) Limit() (int, bool) {
	if p.limit == nil {
		return 0, false
	}
	return *p.limit, true
}

// Offset returns the row offset and whether one was set.
func (p *PlannedStatement) Offset() (int, bool) {
	if p.offset == nil {
		return 0, false
	}
	return *p.offset, true
}

// Distinct reports whether duplicate elimination was requested.
func (p *PlannedStatement) Distinct() bool { return p.distinct }

// BoundParams returns every bound parameter in the statement, depth-first
// left-to-right over joins, where and having. Backends that number their
// placeholders in the same walk order can zip the two together.
func (p *PlannedStatement) BoundParams() []BoundParam {
	var out []BoundParam
	for _, j := range p.joins {
		if j.On != nil {
			out = exprParams(j.On, out)
		}
	}
	if p.where != nil {
		out = exprParams(p.where, out)
	}
	if p.having != nil {
		out = exprParams(p.having, out)
	}
	return out
}

// Plan runs the single resolution and validation pass over the query and
// emits an immutable statement. It checks field existence (including order,
// group, select and join-on references), join target existence against the
// registry and bound-parameter type agreement. Any builder-time error
// carried by the query surfaces here, before anything is executed.
func Plan(q Query, reg *schema.Registry) (*PlannedStatement, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.source == nil {
		return nil, &MissingSourceError{}
	}

	for _, e := range q.wheres {
		if err := validateExpr(q.source, e); err != nil {
			return nil, err
		}
	}
	for _, e := range q.havings {
		if err := validateExpr(q.source, e); err != nil {
			return nil, err
		}
	}
	for _, o := range q.orders {
		if q.source.Field(o.Field) == nil {
			return nil, &UnknownFieldError{Kind: q.source.Name(), Field: o.Field}
		}
	}
	for _, g := range q.groups {
		if q.source.Field(g) == nil {
			return nil, &UnknownFieldError{Kind: q.source.Name(), Field: g}
		}
	}
	for _, s := range q.selects {
		if q.source.Field(s) == nil {
			return nil, &UnknownFieldError{Kind: q.source.Name(), Field: s}
		}
	}
	joins := append([]Join(nil), q.joins...)
	for i, j := range joins {
		target, err := reg.Lookup(j.Target)
		if err != nil {
			return nil, &UnknownJoinTargetError{Target: j.Target}
		}
		joins[i].TargetSource = target.Source()
		if j.On != nil {
			on, err := qualifyJoinOn(q.source, target, j.On)
			if err != nil {
				return nil, err
			}
			joins[i].On = on
		}
	}
	for _, a := range q.preloads {
		if q.source.Association(a) == nil {
			return nil, &UnknownFieldError{Kind: q.source.Name(), Field: a}
		}
	}

	p := &PlannedStatement{
		source:   q.source,
		where:    conjoin(q.wheres),
		having:   conjoin(q.havings),
		orders:   append([]OrderTerm(nil), q.orders...),
		groups:   append([]string(nil), q.groups...),
		joins:    joins,
		selects:  append([]string(nil), q.selects...),
		preloads: append([]string(nil), q.preloads...),
	}
	if q.limit != nil {
		n := *q.limit
		p.limit = &n
	}
	if q.offset != nil {
		n := *q.offset
		p.offset = &n
	}
	if q.distinct != nil {
		p.distinct = *q.distinct
	}
	return p, nil
}

// qualifyJoinOn resolves every field reference in a join's ON predicate
// and returns a copy with table-qualified column names so a column shared
// by both sides stays unambiguous. A bare field name resolves against the
// target kind first, then the source; a "Kind.field" or "source.field"
// reference names its side explicitly. Bound values are type-checked as
// usual; field-to-field comparisons may span the two sides.
func qualifyJoinOn(src, target *schema.Descriptor, e Expr) (Expr, error) {
	resolve := func(field string) (*schema.FieldSpec, string, error) {
		if qual, col, ok := strings.Cut(field, "."); ok {
			var side *schema.Descriptor
			switch qual {
			case target.Name(), target.Source():
				side = target
			case src.Name(), src.Source():
				side = src
			default:
				return nil, "", &UnknownFieldError{Kind: qual, Field: col}
			}
			spec := side.Field(col)
			if spec == nil {
				return nil, "", &UnknownFieldError{Kind: side.Name(), Field: col}
			}
			return spec, side.Source() + "." + col, nil
		}
		if spec := target.Field(field); spec != nil {
			return spec, target.Source() + "." + field, nil
		}
		if spec := src.Field(field); spec != nil {
			return spec, src.Source() + "." + field, nil
		}
		return nil, "", &UnknownFieldError{Kind: target.Name(), Field: field}
	}

	switch n := e.(type) {
	case *Comparison:
		spec, name, err := resolve(n.Field)
		if err != nil {
			return nil, err
		}
		if !kindCompatible(spec.Type.Kind, n.Param.Kind) {
			return nil, &BindTypeError{Field: n.Field, FieldKind: spec.Type.Kind, BoundKind: n.Param.Kind}
		}
		return &Comparison{Field: name, Op: n.Op, Param: n.Param}, nil
	case *FieldComparison:
		left, leftName, err := resolve(n.Left)
		if err != nil {
			return nil, err
		}
		right, rightName, err := resolve(n.Right)
		if err != nil {
			return nil, err
		}
		if !fieldKindsComparable(left.Type.Kind, right.Type.Kind) {
			return nil, &IncomparableFieldsError{
				Left: n.Left, LeftKind: left.Type.Kind,
				Right: n.Right, RightKind: right.Type.Kind,
			}
		}
		return &FieldComparison{Left: leftName, Op: n.Op, Right: rightName}, nil
	case *InList:
		spec, name, err := resolve(n.Field)
		if err != nil {
			return nil, err
		}
		for _, p := range n.Params {
			if !kindCompatible(spec.Type.Kind, p.Kind) {
				return nil, &BindTypeError{Field: n.Field, FieldKind: spec.Type.Kind, BoundKind: p.Kind}
			}
		}
		return &InList{Field: name, Params: append([]BoundParam(nil), n.Params...)}, nil
	case *NullCheck:
		_, name, err := resolve(n.Field)
		if err != nil {
			return nil, err
		}
		return &NullCheck{Field: name, Negated: n.Negated}, nil
	case *Conjunction:
		operands := make([]Expr, len(n.Operands))
		for i, op := range n.Operands {
			q, err := qualifyJoinOn(src, target, op)
			if err != nil {
				return nil, err
			}
			operands[i] = q
		}
		return &Conjunction{Or: n.Or, Operands: operands}, nil
	case *Negation:
		q, err := qualifyJoinOn(src, target, n.Operand)
		if err != nil {
			return nil, err
		}
		return &Negation{Operand: q}, nil
	}
	return e, nil
}

// conjoin folds predicates into one AND tree. One predicate stays as-is;
// none yields nil.
func conjoin(exprs []Expr) Expr {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return &Conjunction{Operands: append([]Expr(nil), exprs...)}
	}
}

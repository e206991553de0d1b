package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/strataorm/strata/pkg/query"
)

// renderer accumulates SQL text and the out-of-band argument list. Every
// bound value becomes a $n placeholder; there is no code path that writes
// a runtime value into the statement text.
type renderer struct {
	sb   strings.Builder
	args []interface{}
}

func (r *renderer) bind(p query.BoundParam) string {
	r.args = append(r.args, p.Value)
	return "$" + strconv.Itoa(len(r.args))
}

func (r *renderer) expr(e query.Expr) error {
	switch n := e.(type) {
	case *query.Comparison:
		fmt.Fprintf(&r.sb, "%s %s %s", n.Field, n.Op, r.bind(n.Param))
	case *query.FieldComparison:
		fmt.Fprintf(&r.sb, "%s %s %s", n.Left, n.Op, n.Right)
	case *query.InList:
		if len(n.Params) == 0 {
			// Empty IN matches nothing.
			r.sb.WriteString("FALSE")
			return nil
		}
		placeholders := make([]string, len(n.Params))
		for i, p := range n.Params {
			placeholders[i] = r.bind(p)
		}
		fmt.Fprintf(&r.sb, "%s IN (%s)", n.Field, strings.Join(placeholders, ", "))
	case *query.NullCheck:
		if n.Negated {
			fmt.Fprintf(&r.sb, "%s IS NOT NULL", n.Field)
		} else {
			fmt.Fprintf(&r.sb, "%s IS NULL", n.Field)
		}
	case *query.Conjunction:
		op := " AND "
		if n.Or {
			op = " OR "
		}
		r.sb.WriteString("(")
		for i, operand := range n.Operands {
			if i > 0 {
				r.sb.WriteString(op)
			}
			if err := r.expr(operand); err != nil {
				return err
			}
		}
		r.sb.WriteString(")")
	case *query.Negation:
		r.sb.WriteString("NOT (")
		if err := r.expr(n.Operand); err != nil {
			return err
		}
		r.sb.WriteString(")")
	default:
		return fmt.Errorf("unsupported predicate node %T", e)
	}
	return nil
}

// RenderSelect turns a planned statement into a single SELECT with
// positional parameters. Identifiers come from registered descriptors,
// never from request input.
func RenderSelect(stmt *query.PlannedStatement) (string, []interface{}, error) {
	r := &renderer{}
	src := stmt.Source()

	r.sb.WriteString("SELECT ")
	if stmt.Distinct() {
		r.sb.WriteString("DISTINCT ")
	}
	selects := stmt.Selects()
	if len(selects) == 0 {
		r.sb.WriteString("*")
	} else {
		r.sb.WriteString(strings.Join(selects, ", "))
	}
	r.sb.WriteString(" FROM ")
	r.sb.WriteString(src.Source())

	for _, j := range stmt.Joins() {
		fmt.Fprintf(&r.sb, " %s JOIN %s", j.Kind, j.TargetSource)
		if j.On != nil {
			r.sb.WriteString(" ON ")
			if err := r.expr(j.On); err != nil {
				return "", nil, err
			}
		}
	}

	if w := stmt.Where(); w != nil {
		r.sb.WriteString(" WHERE ")
		if err := r.expr(w); err != nil {
			return "", nil, err
		}
	}

	if groups := stmt.Groups(); len(groups) > 0 {
		r.sb.WriteString(" GROUP BY ")
		r.sb.WriteString(strings.Join(groups, ", "))
	}

	if h := stmt.Having(); h != nil {
		r.sb.WriteString(" HAVING ")
		if err := r.expr(h); err != nil {
			return "", nil, err
		}
	}

	if orders := stmt.Orders(); len(orders) > 0 {
		r.sb.WriteString(" ORDER BY ")
		terms := make([]string, len(orders))
		for i, o := range orders {
			terms[i] = o.Field + " " + string(o.Direction)
		}
		r.sb.WriteString(strings.Join(terms, ", "))
	}

	if n, ok := stmt.Limit(); ok {
		fmt.Fprintf(&r.sb, " LIMIT %d", n)
	}
	if n, ok := stmt.Offset(); ok {
		fmt.Fprintf(&r.sb, " OFFSET %d", n)
	}

	return r.sb.String(), r.args, nil
}

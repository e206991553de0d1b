// Package query provides a composable, injection-safe query representation.
// Queries are immutable values built incrementally and only later planned
// into a backend-opaque statement; runtime values enter a predicate solely
// through Bind, never as raw text.
package query

import (
	"time"

	"github.com/google/uuid"
	"github.com/strataorm/strata/pkg/schema"
)

// Expr is a node in a predicate tree.
type Expr interface {
	isExpr()
}

// BoundParam wraps a runtime value together with its inferred type kind.
// It is carried out-of-band to the backend as a positional parameter and
// is never rendered as literal text.
type BoundParam struct {
	Value interface{}
	Kind  string
}

// Bind wraps a runtime value for use in a predicate. It is the only path
// by which a value from the surrounding scope can enter a query.
func Bind(v interface{}) BoundParam {
	return BoundParam{Value: v, Kind: inferKind(v)}
}

func inferKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return ""
	case string:
		return "String"
	case int, int8, int16, int32, int64, uint, uint32, uint64:
		return "Int"
	case float32, float64:
		return "Float"
	case bool:
		return "Bool"
	case uuid.UUID:
		return "UUID"
	case time.Time:
		return "Timestamp"
	default:
		return ""
	}
}

// Op is a comparison operator.
type Op string

const (
	OpEQ   Op = "="
	OpNEQ  Op = "<>"
	OpGT   Op = ">"
	OpGTE  Op = ">="
	OpLT   Op = "<"
	OpLTE  Op = "<="
	OpLike Op = "LIKE"
)

// Comparison compares a field against a bound parameter.
type Comparison struct {
	Field string
	Op    Op
	Param BoundParam
}

// FieldComparison compares two fields against each other instead of a
// field against a bound value. The usual shape of a join's ON predicate,
// e.g. orders.user_id = users.id. Inside a join condition a field may be
// written as "Kind.field" to pick a side explicitly; bare names resolve
// against the join target first, then the query source.
type FieldComparison struct {
	Left  string
	Op    Op
	Right string
}

// InList checks membership of a field value in a bound list.
type InList struct {
	Field  string
	Params []BoundParam
}

// NullCheck tests a field for NULL (or NOT NULL when Negated).
type NullCheck struct {
	Field   string
	Negated bool
}

// Conjunction combines operand predicates with AND or OR.
type Conjunction struct {
	Or       bool
	Operands []Expr
}

// Negation inverts its operand.
type Negation struct {
	Operand Expr
}

func (*Comparison) isExpr()      {}
func (*FieldComparison) isExpr() {}
func (*InList) isExpr()          {}
func (*NullCheck) isExpr()       {}
func (*Conjunction) isExpr()     {}
func (*Negation) isExpr()        {}

// EQ returns field = param.
func EQ(field string, p BoundParam) Expr { return &Comparison{Field: field, Op: OpEQ, Param: p} }

// NEQ returns field <> param.
func NEQ(field string, p BoundParam) Expr { return &Comparison{Field: field, Op: OpNEQ, Param: p} }

// GT returns field > param.
func GT(field string, p BoundParam) Expr { return &Comparison{Field: field, Op: OpGT, Param: p} }

// GTE returns field >= param.
func GTE(field string, p BoundParam) Expr { return &Comparison{Field: field, Op: OpGTE, Param: p} }

// LT returns field < param.
func LT(field string, p BoundParam) Expr { return &Comparison{Field: field, Op: OpLT, Param: p} }

// LTE returns field <= param.
func LTE(field string, p BoundParam) Expr { return &Comparison{Field: field, Op: OpLTE, Param: p} }

// Like returns field LIKE param.
func Like(field string, p BoundParam) Expr { return &Comparison{Field: field, Op: OpLike, Param: p} }

// FieldEQ returns left = right, comparing two fields.
func FieldEQ(left, right string) Expr {
	return &FieldComparison{Left: left, Op: OpEQ, Right: right}
}

// FieldNEQ returns left <> right, comparing two fields.
func FieldNEQ(left, right string) Expr {
	return &FieldComparison{Left: left, Op: OpNEQ, Right: right}
}

// In returns field IN (params...).
func In(field string, ps ...BoundParam) Expr { return &InList{Field: field, Params: ps} }

// IsNull returns field IS NULL.
func IsNull(field string) Expr { return &NullCheck{Field: field} }

// NotNull returns field IS NOT NULL.
func NotNull(field string) Expr { return &NullCheck{Field: field, Negated: true} }

// And combines predicates conjunctively.
func And(exprs ...Expr) Expr { return &Conjunction{Operands: exprs} }

// Or combines predicates disjunctively.
func Or(exprs ...Expr) Expr { return &Conjunction{Or: true, Operands: exprs} }

// Not inverts a predicate.
func Not(e Expr) Expr { return &Negation{Operand: e} }

// validateExpr resolves every field reference in e against desc and checks
// that each bound parameter's inferred kind agrees with the field's
// declared type. This is the injection defense and the type-safety check
// in one pass.
func validateExpr(desc *schema.Descriptor, e Expr) error {
	switch n := e.(type) {
	case *Comparison:
		spec := desc.Field(n.Field)
		if spec == nil {
			return &UnknownFieldError{Kind: desc.Name(), Field: n.Field}
		}
		if !kindCompatible(spec.Type.Kind, n.Param.Kind) {
			return &BindTypeError{Field: n.Field, FieldKind: spec.Type.Kind, BoundKind: n.Param.Kind}
		}
	case *FieldComparison:
		left := desc.Field(n.Left)
		if left == nil {
			return &UnknownFieldError{Kind: desc.Name(), Field: n.Left}
		}
		right := desc.Field(n.Right)
		if right == nil {
			return &UnknownFieldError{Kind: desc.Name(), Field: n.Right}
		}
		if !fieldKindsComparable(left.Type.Kind, right.Type.Kind) {
			return &IncomparableFieldsError{
				Left: n.Left, LeftKind: left.Type.Kind,
				Right: n.Right, RightKind: right.Type.Kind,
			}
		}
	case *InList:
		spec := desc.Field(n.Field)
		if spec == nil {
			return &UnknownFieldError{Kind: desc.Name(), Field: n.Field}
		}
		for _, p := range n.Params {
			if !kindCompatible(spec.Type.Kind, p.Kind) {
				return &BindTypeError{Field: n.Field, FieldKind: spec.Type.Kind, BoundKind: p.Kind}
			}
		}
	case *NullCheck:
		if desc.Field(n.Field) == nil {
			return &UnknownFieldError{Kind: desc.Name(), Field: n.Field}
		}
	case *Conjunction:
		for _, op := range n.Operands {
			if err := validateExpr(desc, op); err != nil {
				return err
			}
		}
	case *Negation:
		return validateExpr(desc, n.Operand)
	}
	return nil
}

// kindCompatible reports whether a value of inferred kind bound may be
// compared against a field declared as kind field.
func kindCompatible(field, bound string) bool {
	if bound == "" {
		// Unknown inferred kind is rejected: no unchecked values.
		return false
	}
	if field == bound {
		return true
	}
	switch field {
	case "Float", "Decimal":
		return bound == "Int" || bound == "Float"
	case "Enum":
		return bound == "String"
	case "UUID":
		return bound == "String" || bound == "UUID"
	case "Date":
		return bound == "Timestamp"
	}
	return false
}

// fieldKindsComparable reports whether two declared field kinds may be
// compared against each other. Symmetric, unlike the field-vs-bound check.
func fieldKindsComparable(a, b string) bool {
	return a == b || kindCompatible(a, b) || kindCompatible(b, a)
}

// exprParams appends every bound parameter in e, depth-first left-to-right.
func exprParams(e Expr, out []BoundParam) []BoundParam {
	switch n := e.(type) {
	case *Comparison:
		out = append(out, n.Param)
	case *InList:
		out = append(out, n.Params...)
	case *Conjunction:
		for _, op := range n.Operands {
			out = exprParams(op, out)
		}
	case *Negation:
		out = exprParams(n.Operand, out)
	}
	return out
}

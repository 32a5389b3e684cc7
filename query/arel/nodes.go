// Package arel defines the SQL expression tree used by relations and the
// squeel DSL, and renders it into dialect-specific SQL text.
package arel

import "reflect"

// Node is a fragment of a SQL expression tree.
type Node interface {
	node()
}

// Operator is a binary SQL operator.
type Operator string

const (
	OpEq       Operator = "="
	OpNotEq    Operator = "!="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLike     Operator = "LIKE"
	OpNotLike  Operator = "NOT LIKE"
	OpMatches  Operator = "MATCHES"
	OpPlus     Operator = "+"
	OpMinus    Operator = "-"
	OpMultiply Operator = "*"
	OpDivide   Operator = "/"
)

// SqlLiteral is raw SQL that is rendered verbatim.
type SqlLiteral string

// Sql marks raw as SQL.
func Sql(raw string) SqlLiteral {
	return SqlLiteral(raw)
}

// Quoted is a Go value rendered through the dialect's value quoting.
type Quoted struct {
	Value any
}

// Binary is a comparison or arithmetic operation.
type Binary struct {
	Op    Operator
	Left  Node
	Right Node
}

// In is an IN / NOT IN membership test. Right is either a List or a
// subquery expression.
type In struct {
	Left   Node
	Right  Node
	Negate bool
}

// List is a parenthesized, comma separated list of nodes.
type List []Node

// Between is an inclusive range test.
type Between struct {
	Left Node
	Low  Node
	High Node
}

// And joins its children with AND.
type And struct {
	Children []Node
}

// Or joins two nodes with OR. It does not add parentheses by itself.
type Or struct {
	Left  Node
	Right Node
}

// Not negates an expression: NOT (expr).
type Not struct {
	Expr Node
}

// Grouping wraps an expression in parentheses.
type Grouping struct {
	Expr Node
}

// NamedFunction is a SQL function call such as COUNT("posts"."id").
type NamedFunction struct {
	Name     string
	Args     []Node
	Distinct bool
}

// As aliases an expression.
type As struct {
	Expr  Node
	Alias string
}

// Ordering is an ORDER BY term.
type Ordering struct {
	Expr Node
	Desc bool
}

// JoinKind selects the join type.
type JoinKind string

const (
	InnerJoin      JoinKind = "INNER JOIN"
	LeftOuterJoin  JoinKind = "LEFT OUTER JOIN"
	RightOuterJoin JoinKind = "RIGHT OUTER JOIN"
	FullOuterJoin  JoinKind = "FULL OUTER JOIN"
)

// Join joins a table with an optional ON condition.
type Join struct {
	Kind  JoinKind
	Table *Table
	On    Node
}

// StringJoin is a join clause given as raw SQL.
type StringJoin struct {
	SQL string
}

func (SqlLiteral) node()       {}
func (*Quoted) node()          {}
func (*Binary) node()          {}
func (*In) node()              {}
func (List) node()             {}
func (*Between) node()         {}
func (*And) node()             {}
func (*Or) node()              {}
func (*Not) node()             {}
func (*Grouping) node()        {}
func (*NamedFunction) node()   {}
func (*As) node()              {}
func (*Ordering) node()        {}
func (*Join) node()            {}
func (*StringJoin) node()      {}
func (*Table) node()           {}
func (*Attribute) node()       {}
func (*Star) node()            {}
func (*SelectStatement) node() {}

// Build converts a Go value into a node. Nodes are returned untouched, nil
// becomes a NULL literal and everything else is quoted.
func Build(v any) Node {
	if n, ok := v.(Node); ok && n != nil {
		return n
	}
	return &Quoted{Value: v}
}

// IsNull reports whether n is a NULL literal.
func IsNull(n Node) bool {
	if n == nil {
		return true
	}
	q, ok := n.(*Quoted)
	return ok && q.Value == nil
}

// Eq builds left = right, or left IS NULL when right is nil.
func Eq(left Node, right any) *Binary {
	return &Binary{Op: OpEq, Left: left, Right: Build(right)}
}

// NotEq builds left != right, or left IS NOT NULL when right is nil.
func NotEq(left Node, right any) *Binary {
	return &Binary{Op: OpNotEq, Left: left, Right: Build(right)}
}

// NewAnd joins the non-nil nodes with AND.
func NewAnd(nodes ...Node) *And {
	children := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			children = append(children, n)
		}
	}
	return &And{Children: children}
}

// NewIn builds left IN (values...). Nested slices are flattened.
func NewIn(left Node, values []any) *In {
	return &In{Left: left, Right: Flatten(values)}
}

// NewNotIn builds left NOT IN (values...). Nested slices are flattened.
func NewNotIn(left Node, values []any) *In {
	return &In{Left: left, Right: Flatten(values), Negate: true}
}

// Membership builds left IN (list), or left NOT IN (list) when negate is
// set. NULL never matches inside an IN list, so NULL elements become an
// IS NULL test: [NULL] gives left IS NULL and [1, NULL] gives
// (left IN (1) OR left IS NULL).
func Membership(left Node, list List, negate bool) Node {
	var values List
	hasNull := false
	for _, n := range list {
		if IsNull(n) {
			hasNull = true
			continue
		}
		values = append(values, n)
	}

	switch {
	case !hasNull:
		return &In{Left: left, Right: values, Negate: negate}
	case len(values) == 0 && negate:
		return NotEq(left, nil)
	case len(values) == 0:
		return Eq(left, nil)
	case negate:
		return NewAnd(&In{Left: left, Right: values, Negate: true}, NotEq(left, nil))
	default:
		return &Grouping{Expr: &Or{Left: &In{Left: left, Right: values}, Right: Eq(left, nil)}}
	}
}

// Flatten converts values into a List, expanding nested slices.
func Flatten(values []any) List {
	out := make(List, 0, len(values))
	for _, v := range values {
		if nested, ok := Expand(v); ok {
			out = append(out, Flatten(nested)...)
			continue
		}
		out = append(out, Build(v))
	}
	return out
}

// Expand returns the elements of v when v is a slice or array other than
// []byte or a List.
func Expand(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil, []byte, List:
		return nil, false
	case []any:
		return t, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

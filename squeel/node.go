package squeel

import (
	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/relation"
)

// Expr is any DSL value that stands for a SQL expression.
type Expr interface {
	Arel() arel.Node
}

type failer interface {
	Err() error
}

// Node wraps an arel node. Its methods build new nodes; a Node is never
// changed after it is created.
type Node struct {
	node arel.Node
	err  error
}

// NewNode wraps n.
func NewNode(n arel.Node) Node {
	return Node{node: n}
}

func errNode(n arel.Node, err error) Node {
	return Node{node: n, err: err}
}

// Arel returns the wrapped node.
func (n Node) Arel() arel.Node { return n.node }

// Err returns the first error met while building the node.
func (n Node) Err() error { return n.err }

// ToSQL renders the node.
func (n Node) ToSQL(d arel.Dialect) string {
	return arel.ToSQL(n.node, d)
}

// operand converts a Go value used on the right of an operator.
func operand(v any) (arel.Node, error) {
	switch t := v.(type) {
	case nil:
		return arel.Build(nil), nil
	case *relation.Relation:
		if t == nil {
			return arel.Build(nil), &relation.ArgumentError{Method: "subquery", Value: v}
		}
		sub, err := t.SubquerySQL()
		return &arel.Grouping{Expr: arel.Sql(sub)}, err
	case *Query:
		if t == nil {
			return arel.Build(nil), &relation.ArgumentError{Method: "subquery", Value: v}
		}
		sub, err := t.rel.SubquerySQL()
		return &arel.Grouping{Expr: arel.Sql(sub)}, firstErr(t.err, err)
	case Expr:
		return t.Arel(), errOf(t)
	default:
		return arel.Build(v), nil
	}
}

func errOf(v any) error {
	if f, ok := v.(failer); ok {
		return f.Err()
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (n Node) binary(op arel.Operator, v any) Node {
	right, err := operand(v)
	return errNode(&arel.Binary{Op: op, Left: n.node, Right: right}, firstErr(n.err, err))
}

// Eq builds n = v; a nil v gives IS NULL.
func (n Node) Eq(v any) Node { return n.binary(arel.OpEq, v) }

// NotEq builds n != v; a nil v gives IS NOT NULL.
func (n Node) NotEq(v any) Node { return n.binary(arel.OpNotEq, v) }

// Lt builds n < v.
func (n Node) Lt(v any) Node { return n.binary(arel.OpLt, v) }

// Lte builds n <= v.
func (n Node) Lte(v any) Node { return n.binary(arel.OpLte, v) }

// Gt builds n > v.
func (n Node) Gt(v any) Node { return n.binary(arel.OpGt, v) }

// Gte builds n >= v.
func (n Node) Gte(v any) Node { return n.binary(arel.OpGte, v) }

// Like builds n LIKE v.
func (n Node) Like(v any) Node { return n.binary(arel.OpLike, v) }

// NotLike builds n NOT LIKE v.
func (n Node) NotLike(v any) Node { return n.binary(arel.OpNotLike, v) }

// Matches builds a case-insensitive LIKE.
func (n Node) Matches(v any) Node { return n.binary(arel.OpMatches, v) }

func (n Node) arithmetic(op arel.Operator, v any) Node {
	b := n.binary(op, v)
	return errNode(&arel.Grouping{Expr: b.node}, b.err)
}

// Plus builds (n + v).
func (n Node) Plus(v any) Node { return n.arithmetic(arel.OpPlus, v) }

// Minus builds (n - v).
func (n Node) Minus(v any) Node { return n.arithmetic(arel.OpMinus, v) }

// Times builds (n * v).
func (n Node) Times(v any) Node { return n.arithmetic(arel.OpMultiply, v) }

// Over builds (n / v).
func (n Node) Over(v any) Node { return n.arithmetic(arel.OpDivide, v) }

// Between builds n BETWEEN low AND high.
func (n Node) Between(low, high any) Node {
	l, lerr := operand(low)
	h, herr := operand(high)
	return errNode(&arel.Between{Left: n.node, Low: l, High: h}, firstErr(n.err, lerr, herr))
}

// And joins n and others with AND.
func (n Node) And(others ...any) Node {
	nodes := []arel.Node{n.node}
	err := n.err
	for _, o := range others {
		right, rerr := operand(o)
		nodes = append(nodes, right)
		err = firstErr(err, rerr)
	}
	return errNode(arel.NewAnd(nodes...), err)
}

// Or builds (n OR other).
func (n Node) Or(other any) Node {
	right, err := operand(other)
	return errNode(&arel.Grouping{Expr: &arel.Or{Left: n.node, Right: right}}, firstErr(n.err, err))
}

// Not builds NOT (n).
func (n Node) Not() Node {
	return errNode(&arel.Not{Expr: n.node}, n.err)
}

// As aliases n.
func (n Node) As(alias string) Node {
	return errNode(&arel.As{Expr: n.node, Alias: alias}, n.err)
}

// Asc orders by n ascending.
func (n Node) Asc() Node {
	return errNode(&arel.Ordering{Expr: n.node}, n.err)
}

// Desc orders by n descending.
func (n Node) Desc() Node {
	return errNode(&arel.Ordering{Expr: n.node, Desc: true}, n.err)
}

// In tests membership. v may be a list (nested lists are flattened), a
// relation or query used as a subquery, or an expression.
//
// NULL never matches inside an IN list, so nil elements become an IS NULL
// test: [nil] gives n IS NULL and [1, nil] gives (n IN (1) OR n IS NULL).
// An empty list gives 1=0.
func (n Node) In(v any) Node {
	return n.membership(v, false)
}

// NotIn is the negation of In. [1, nil] gives
// n NOT IN (1) AND n IS NOT NULL and an empty list gives 1=1.
func (n Node) NotIn(v any) Node {
	return n.membership(v, true)
}

func (n Node) membership(v any, negate bool) Node {
	switch v.(type) {
	case *relation.Relation, *Query, Expr:
		right, err := operand(v)
		return errNode(&arel.In{Left: n.node, Right: right, Negate: negate}, firstErr(n.err, err))
	}

	values, ok := arel.Expand(v)
	if !ok {
		values = []any{v}
	}
	list := make(arel.List, 0, len(values))
	err := n.err
	for _, e := range flatten(values) {
		node, oerr := operand(e)
		err = firstErr(err, oerr)
		list = append(list, node)
	}
	return errNode(arel.Membership(n.node, list, negate), err)
}

func flatten(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if nested, ok := arel.Expand(v); ok {
			out = append(out, flatten(nested)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

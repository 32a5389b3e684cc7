package squeel

import (
	"context"
	"fmt"

	"github.com/satishbabariya/babysqueel/internal/debug"
	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/relation"
)

// Query decorates a relation with DSL entry points. Like the relation it
// wraps, it is immutable: every method returns a new Query.
//
// The -ing methods (WhereHas, Joining, Selecting, ...) always take blocks.
// The plain methods (Where, Joins, Select, ...) take a single block only in
// compatibility mode and otherwise pass their arguments to the relation.
type Query struct {
	rel    *relation.Relation
	opts   []Option
	compat bool
	err    error
}

// Wrap returns a Query over rel.
func Wrap(rel *relation.Relation, opts ...Option) *Query {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Query{rel: rel, opts: opts, compat: o.compat}
}

func (q *Query) with(rel *relation.Relation, err error) *Query {
	n := *q
	n.rel = rel
	if n.err == nil {
		n.err = err
	}
	return &n
}

// DSL returns a DSL bound to the wrapped relation.
func (q *Query) DSL() *DSL {
	return New(q.rel, q.opts...)
}

// Relation returns the wrapped relation.
func (q *Query) Relation() *relation.Relation { return q.rel }

// Err returns the first error from evaluating blocks or building the
// relation.
func (q *Query) Err() error {
	return firstErr(q.err, q.rel.Err())
}

// ToSQL renders the query.
func (q *Query) ToSQL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	return q.rel.ToSQL()
}

// Load executes the query.
func (q *Query) Load(ctx context.Context, db relation.Queryer) ([]*relation.Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.rel.Load(ctx, db)
}

func (q *Query) evaluate(method string, block func(*DSL) any) ([]any, error) {
	v, err := q.DSL().Evaluate(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return spread(v), nil
}

func spread(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

func (q *Query) apply(method string, block func(*DSL) any, fn func(...any) *relation.Relation) *Query {
	args, err := q.evaluate(method, block)
	if err != nil {
		return q.with(q.rel, err)
	}
	return q.with(fn(args...), nil)
}

// WhereHas adds the conditions built by block.
func (q *Query) WhereHas(block func(*DSL) any) *Query {
	return q.apply("WhereHas", block, q.rel.Where)
}

// Selecting adds the projections built by block.
func (q *Query) Selecting(block func(*DSL) any) *Query {
	return q.apply("Selecting", block, q.rel.Select)
}

// Ordering adds the orderings built by block.
func (q *Query) Ordering(block func(*DSL) any) *Query {
	return q.apply("Ordering", block, q.rel.Order)
}

// Reordering replaces the orderings with those built by block.
func (q *Query) Reordering(block func(*DSL) any) *Query {
	return q.apply("Reordering", block, q.rel.Reorder)
}

// Grouping adds the GROUP BY terms built by block.
func (q *Query) Grouping(block func(*DSL) any) *Query {
	return q.apply("Grouping", block, q.rel.Group)
}

// WhenHaving adds the HAVING conditions built by block.
func (q *Query) WhenHaving(block func(*DSL) any) *Query {
	return q.apply("WhenHaving", block, q.rel.Having)
}

// Joining adds the joins built by block. Associations are joined along
// their chain from the root table; other values go to the relation as is.
func (q *Query) Joining(block func(*DSL) any) *Query {
	v, e := q.DSL().run(block)
	if e.err != nil {
		return q.with(q.rel, fmt.Errorf("Joining: %w", e.err))
	}
	args, err := joinArgs(v)
	if err != nil {
		return q.with(q.rel, fmt.Errorf("Joining: %w", err))
	}
	return q.with(q.rel.Joins(args...), nil)
}

func joinArgs(v any) ([]any, error) {
	var nodes []arel.Node
	var err error
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Association:
		nodes, err = t.joinNodes()
	case *Table:
		nodes, err = t.joinNodes()
	case Expr:
		return []any{t.Arel()}, errOf(t)
	default:
		values, ok := arel.Expand(v)
		if !ok {
			return []any{v}, nil
		}
		var out []any
		for _, e := range values {
			args, err := joinArgs(e)
			if err != nil {
				return nil, err
			}
			out = append(out, args...)
		}
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

// Including adds the associations named by block to Includes.
func (q *Query) Including(block func(KeyPath) any) *Query {
	return q.with(q.rel.Includes(EvaluatePaths(block)...), nil)
}

// EagerLoading adds the associations named by block to EagerLoad.
func (q *Query) EagerLoading(block func(KeyPath) any) *Query {
	return q.with(q.rel.EagerLoad(EvaluatePaths(block)...), nil)
}

// Preloading adds the associations named by block to Preload.
func (q *Query) Preloading(block func(KeyPath) any) *Query {
	return q.with(q.rel.Preload(EvaluatePaths(block)...), nil)
}

// dslBlock returns the block when args is a single DSL block and
// compatibility mode is on.
func (q *Query) dslBlock(method string, args []any) (func(*DSL) any, bool) {
	if !q.compat || len(args) != 1 {
		return nil, false
	}
	block, ok := args[0].(func(*DSL) any)
	if ok {
		debug.Debug("squeel: routing block", "method", method, "model", q.rel.Model().Name)
	}
	return block, ok
}

func (q *Query) pathBlock(method string, args []any) (func(KeyPath) any, bool) {
	if !q.compat || len(args) != 1 {
		return nil, false
	}
	block, ok := args[0].(func(KeyPath) any)
	if ok {
		debug.Debug("squeel: routing path block", "method", method, "model", q.rel.Model().Name)
	}
	return block, ok
}

// Where adds conditions.
func (q *Query) Where(args ...any) *Query {
	if block, ok := q.dslBlock("Where", args); ok {
		return q.WhereHas(block)
	}
	return q.with(q.rel.Where(args...), nil)
}

// Joins adds joins.
func (q *Query) Joins(args ...any) *Query {
	if block, ok := q.dslBlock("Joins", args); ok {
		return q.Joining(block)
	}
	return q.with(q.rel.Joins(args...), nil)
}

// Select adds projections. A func(*relation.Record) bool is never a DSL
// block: it filters the loaded records.
func (q *Query) Select(args ...any) *Query {
	if block, ok := q.dslBlock("Select", args); ok {
		return q.Selecting(block)
	}
	return q.with(q.rel.Select(args...), nil)
}

// Order adds orderings.
func (q *Query) Order(args ...any) *Query {
	if block, ok := q.dslBlock("Order", args); ok {
		return q.Ordering(block)
	}
	return q.with(q.rel.Order(args...), nil)
}

// Reorder replaces orderings.
func (q *Query) Reorder(args ...any) *Query {
	if block, ok := q.dslBlock("Reorder", args); ok {
		return q.Reordering(block)
	}
	return q.with(q.rel.Reorder(args...), nil)
}

// Group adds GROUP BY terms.
func (q *Query) Group(args ...any) *Query {
	if block, ok := q.dslBlock("Group", args); ok {
		return q.Grouping(block)
	}
	return q.with(q.rel.Group(args...), nil)
}

// Having adds HAVING conditions.
func (q *Query) Having(args ...any) *Query {
	if block, ok := q.dslBlock("Having", args); ok {
		return q.WhenHaving(block)
	}
	return q.with(q.rel.Having(args...), nil)
}

// Includes adds associations to load.
func (q *Query) Includes(args ...any) *Query {
	if block, ok := q.pathBlock("Includes", args); ok {
		return q.Including(block)
	}
	return q.with(q.rel.Includes(args...), nil)
}

// EagerLoad adds associations to load with LEFT OUTER JOINs.
func (q *Query) EagerLoad(args ...any) *Query {
	if block, ok := q.pathBlock("EagerLoad", args); ok {
		return q.EagerLoading(block)
	}
	return q.with(q.rel.EagerLoad(args...), nil)
}

// Preload adds associations to load with separate queries.
func (q *Query) Preload(args ...any) *Query {
	if block, ok := q.pathBlock("Preload", args); ok {
		return q.Preloading(block)
	}
	return q.with(q.rel.Preload(args...), nil)
}

// Limit sets LIMIT.
func (q *Query) Limit(n int) *Query { return q.with(q.rel.Limit(n), nil) }

// Offset sets OFFSET.
func (q *Query) Offset(n int) *Query { return q.with(q.rel.Offset(n), nil) }

// Distinct selects distinct rows.
func (q *Query) Distinct() *Query { return q.with(q.rel.Distinct(), nil) }

// None matches no rows.
func (q *Query) None() *Query { return q.with(q.rel.None(), nil) }

// WhereNot adds negated conditions.
func (q *Query) WhereNot(args ...any) *Query { return q.with(q.rel.WhereNot(args...), nil) }

// LeftOuterJoins adds LEFT OUTER JOINs.
func (q *Query) LeftOuterJoins(args ...any) *Query {
	return q.with(q.rel.LeftOuterJoins(args...), nil)
}

// Unscoped returns a query over a fresh relation for the same model.
func (q *Query) Unscoped() *Query { return q.with(q.rel.Unscoped(), nil) }

// Merge appends the clauses of other. An error kept on other carries over.
func (q *Query) Merge(other *Query) *Query {
	if other == nil {
		return q.with(q.rel, &relation.ArgumentError{Method: "Merge", Value: other})
	}
	return q.with(q.rel.Merge(other.rel), other.err)
}

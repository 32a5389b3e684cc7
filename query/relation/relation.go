// Package relation provides an immutable, chainable query over a model.
// Every query method returns a new Relation; the receiver is never changed.
package relation

import (
	"slices"

	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// Relation is a SELECT query over one model.
type Relation struct {
	model   *schema.Model
	table   *arel.Table
	dialect arel.Dialect

	selects    []arel.Node
	wheres     []arel.Node
	havings    []arel.Node
	joins      []arel.Node
	orders     []arel.Node
	groups     []arel.Node
	includes   []any
	eagerLoads []any
	preloads   []any
	filters    []func(*Record) bool

	limit    *int
	offset   *int
	distinct bool
	none     bool

	err error
}

// Option configures a new Relation.
type Option func(*Relation)

// WithDialect sets the SQL dialect. The default is PostgreSQL.
func WithDialect(d arel.Dialect) Option {
	return func(r *Relation) {
		if d != nil {
			r.dialect = d
		}
	}
}

// New creates a relation selecting every row of model.
func New(model *schema.Model, opts ...Option) *Relation {
	r := &Relation{
		model:   model,
		table:   arel.NewTable(model.TableName),
		dialect: arel.Postgres,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relation) clone() *Relation {
	c := *r
	c.selects = slices.Clone(r.selects)
	c.wheres = slices.Clone(r.wheres)
	c.havings = slices.Clone(r.havings)
	c.joins = slices.Clone(r.joins)
	c.orders = slices.Clone(r.orders)
	c.groups = slices.Clone(r.groups)
	c.includes = slices.Clone(r.includes)
	c.eagerLoads = slices.Clone(r.eagerLoads)
	c.preloads = slices.Clone(r.preloads)
	c.filters = slices.Clone(r.filters)
	return &c
}

// fail keeps the first error.
func (r *Relation) fail(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

// WithError returns a copy of the relation carrying err. Callers layering
// their own argument handling on top of a relation use it to surface
// failures through ToSQL and Load.
func (r *Relation) WithError(err error) *Relation {
	n := r.clone()
	n.fail(err)
	return n
}

// Model returns the queried model.
func (r *Relation) Model() *schema.Model { return r.model }

// Table returns the model's table.
func (r *Relation) Table() *arel.Table { return r.table }

// Dialect returns the dialect used for rendering.
func (r *Relation) Dialect() arel.Dialect { return r.dialect }

// Err returns the first error recorded while building the relation.
func (r *Relation) Err() error { return r.err }

// IsNone reports whether the relation was made empty with None.
func (r *Relation) IsNone() bool { return r.none }

// SelectValues returns the selected expressions.
func (r *Relation) SelectValues() []arel.Node { return slices.Clone(r.selects) }

// WhereValues returns the WHERE conditions.
func (r *Relation) WhereValues() []arel.Node { return slices.Clone(r.wheres) }

// HavingValues returns the HAVING conditions.
func (r *Relation) HavingValues() []arel.Node { return slices.Clone(r.havings) }

// JoinValues returns the join clauses.
func (r *Relation) JoinValues() []arel.Node { return slices.Clone(r.joins) }

// OrderValues returns the ORDER BY terms.
func (r *Relation) OrderValues() []arel.Node { return slices.Clone(r.orders) }

// GroupValues returns the GROUP BY terms.
func (r *Relation) GroupValues() []arel.Node { return slices.Clone(r.groups) }

// IncludesValues returns the values given to Includes, as given.
func (r *Relation) IncludesValues() []any { return nonNil(r.includes) }

// EagerLoadValues returns the values given to EagerLoad, as given.
func (r *Relation) EagerLoadValues() []any { return nonNil(r.eagerLoads) }

// PreloadValues returns the values given to Preload, as given.
func (r *Relation) PreloadValues() []any { return nonNil(r.preloads) }

func nonNil(values []any) []any {
	if values == nil {
		return []any{}
	}
	return slices.Clone(values)
}

// Where adds conditions. Arguments may be a raw SQL string followed by
// values for its ? placeholders, hash conditions (map[string]any) or nodes.
func (r *Relation) Where(args ...any) *Relation {
	n := r.clone()
	nodes, err := n.conditions("Where", args)
	n.fail(err)
	n.wheres = append(n.wheres, nodes...)
	return n
}

// WhereNot adds the negation of the given conditions.
func (r *Relation) WhereNot(args ...any) *Relation {
	n := r.clone()
	nodes, err := n.conditions("WhereNot", args)
	n.fail(err)
	if len(nodes) > 0 {
		n.wheres = append(n.wheres, &arel.Not{Expr: arel.NewAnd(nodes...)})
	}
	return n
}

// Having adds HAVING conditions. It accepts the same arguments as Where.
func (r *Relation) Having(args ...any) *Relation {
	n := r.clone()
	nodes, err := n.conditions("Having", args)
	n.fail(err)
	n.havings = append(n.havings, nodes...)
	return n
}

// Select adds projections. A func(*Record) bool argument filters the loaded
// records in memory instead.
func (r *Relation) Select(args ...any) *Relation {
	n := r.clone()
	for _, arg := range args {
		if fn, ok := arg.(func(*Record) bool); ok {
			n.filters = append(n.filters, fn)
			continue
		}
		nodes, err := n.expressions("Select", arg, n.attributeOrLiteral)
		n.fail(err)
		n.selects = append(n.selects, nodes...)
	}
	return n
}

// Order appends ORDER BY terms.
func (r *Relation) Order(args ...any) *Relation {
	n := r.clone()
	for _, arg := range args {
		nodes, err := n.orderings(arg)
		n.fail(err)
		n.orders = append(n.orders, nodes...)
	}
	return n
}

// Reorder replaces the ORDER BY terms.
func (r *Relation) Reorder(args ...any) *Relation {
	n := r.clone()
	n.orders = nil
	return n.Order(args...)
}

// Group appends GROUP BY terms.
func (r *Relation) Group(args ...any) *Relation {
	n := r.clone()
	for _, arg := range args {
		nodes, err := n.expressions("Group", arg, n.attributeOrLiteral)
		n.fail(err)
		n.groups = append(n.groups, nodes...)
	}
	return n
}

// Joins adds INNER JOINs. Arguments may be association names, nested
// association mappings, join nodes or raw join SQL.
func (r *Relation) Joins(args ...any) *Relation {
	n := r.clone()
	n.fail(n.joinArgs("Joins", arel.InnerJoin, args))
	return n
}

// LeftOuterJoins adds LEFT OUTER JOINs for associations.
func (r *Relation) LeftOuterJoins(args ...any) *Relation {
	n := r.clone()
	n.fail(n.joinArgs("LeftOuterJoins", arel.LeftOuterJoin, args))
	return n
}

// Includes records associations to load with the records.
func (r *Relation) Includes(args ...any) *Relation {
	n := r.clone()
	n.includes = appendLoadValues(n.includes, args)
	return n
}

// EagerLoad records associations to load and LEFT OUTER JOINs them.
func (r *Relation) EagerLoad(args ...any) *Relation {
	n := r.clone()
	n.eagerLoads = appendLoadValues(n.eagerLoads, args)
	return n
}

// Preload records associations to load with separate queries.
func (r *Relation) Preload(args ...any) *Relation {
	n := r.clone()
	n.preloads = appendLoadValues(n.preloads, args)
	return n
}

func appendLoadValues(dst []any, args []any) []any {
	for _, arg := range args {
		if arg != nil {
			dst = append(dst, arg)
		}
	}
	return dst
}

// Limit sets LIMIT.
func (r *Relation) Limit(limit int) *Relation {
	n := r.clone()
	n.limit = &limit
	return n
}

// Offset sets OFFSET.
func (r *Relation) Offset(offset int) *Relation {
	n := r.clone()
	n.offset = &offset
	return n
}

// Distinct selects distinct rows.
func (r *Relation) Distinct() *Relation {
	n := r.clone()
	n.distinct = true
	return n
}

// None returns a relation that matches no rows.
func (r *Relation) None() *Relation {
	n := r.clone()
	n.none = true
	return n
}

// Unscoped returns a fresh relation over the same model and dialect.
func (r *Relation) Unscoped() *Relation {
	return New(r.model, WithDialect(r.dialect))
}

// Merge appends the clauses of other. Limit and offset of other win when
// set.
func (r *Relation) Merge(other *Relation) *Relation {
	n := r.clone()
	if other == nil {
		n.fail(&ArgumentError{Method: "Merge", Value: other})
		return n
	}
	n.fail(other.err)
	n.selects = append(n.selects, other.selects...)
	n.wheres = append(n.wheres, other.wheres...)
	n.havings = append(n.havings, other.havings...)
	for _, j := range other.joins {
		n.addJoin(j)
	}
	n.orders = append(n.orders, other.orders...)
	n.groups = append(n.groups, other.groups...)
	n.includes = append(n.includes, other.includes...)
	n.eagerLoads = append(n.eagerLoads, other.eagerLoads...)
	n.preloads = append(n.preloads, other.preloads...)
	n.filters = append(n.filters, other.filters...)
	if other.limit != nil {
		n.limit = other.limit
	}
	if other.offset != nil {
		n.offset = other.offset
	}
	n.distinct = n.distinct || other.distinct
	n.none = n.none || other.none
	return n
}

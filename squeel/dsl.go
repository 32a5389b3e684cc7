// Package squeel builds SQL expressions for relations with plain Go
// closures.
//
// A DSL is bound to a relation. Inside an evaluation names are resolved
// against the relation's model: d.Get("title") is a column, d.Get("author")
// an association and d.Get("COUNT", d.Get("id")) a function call.
//
//	d := squeel.New(posts)
//	cond, err := d.Evaluate(func(d *squeel.DSL) any {
//		return d.Attr("title").Eq(nil).Or(d.Attr("id").In([]int{1, 2}))
//	})
//
// Query wraps a relation so its query methods take DSL blocks.
package squeel

import (
	"slices"

	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/relation"
)

type options struct {
	compat     bool
	strategies []Strategy
	strict     bool
	caller     any
	sifters    *Sifters
}

// Option configures a DSL or Query.
type Option func(*options)

// WithCompat enables compatibility mode: the Query methods accept blocks,
// names resolve with every strategy including fuzzy attributes and boolean
// results become 1 and 0.
func WithCompat() Option {
	return func(o *options) { o.compat = true }
}

// WithStrategies sets the resolution strategies and their order.
func WithStrategies(strategies ...Strategy) Option {
	return func(o *options) { o.strategies = slices.Clone(strategies) }
}

// WithStrictAttributes turns off fuzzy attributes, so unknown names fail
// with ErrUnresolvedName.
func WithStrictAttributes() Option {
	return func(o *options) { o.strict = true }
}

// WithCaller sets the value passed to blocks given to My.
func WithCaller(caller any) Option {
	return func(o *options) { o.caller = caller }
}

// WithSifters sets the sifters available to Sift.
func WithSifters(s *Sifters) Option {
	return func(o *options) { o.sifters = s }
}

// DSL evaluates blocks against a relation. It embeds the root table so
// d.Get and d.Attr address the relation's model directly.
type DSL struct {
	*Table

	rel  *relation.Relation
	opts *options
	err  error
}

// New creates a DSL for rel.
func New(rel *relation.Relation, opts ...Option) *DSL {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return newDSL(rel, o)
}

func newDSL(rel *relation.Relation, o *options) *DSL {
	d := &DSL{rel: rel, opts: o}
	d.Table = newTable(d, rel.Model(), rel.Table())
	return d
}

// Relation returns the relation the DSL is bound to.
func (d *DSL) Relation() *relation.Relation { return d.rel }

// Compat reports whether compatibility mode is on.
func (d *DSL) Compat() bool { return d.opts.compat }

// Strategies returns the resolution strategies in the order they are
// tried.
func (d *DSL) Strategies() []Strategy {
	s := defaultStrategies
	if d.opts.compat {
		s = compatStrategies
	}
	if d.opts.strategies != nil {
		s = d.opts.strategies
	}
	if d.opts.strict {
		s = slices.DeleteFunc(slices.Clone(s), func(x Strategy) bool { return x == StrategyFuzzyAttribute })
	}
	return s
}

// Err returns the first error recorded during evaluation.
func (d *DSL) Err() error { return d.err }

func (d *DSL) record(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// Sql marks raw as literal SQL.
func (d *DSL) Sql(raw string) Node {
	return NewNode(arel.Sql(raw))
}

// Quoted quotes v for the relation's dialect and marks it as SQL.
func (d *DSL) Quoted(v any) Node {
	return NewNode(arel.Sql(d.rel.Dialect().QuoteValue(v)))
}

// Grouping wraps expr in parentheses. A relation becomes its SQL and a
// list becomes a parenthesized tuple.
func (d *DSL) Grouping(expr any) Node {
	switch expr.(type) {
	case *relation.Relation, *Query:
		sql, err := relationSQL(expr)
		return errNode(&arel.Grouping{Expr: arel.Sql(sql)}, err)
	}
	if values, ok := arel.Expand(expr); ok {
		list := make(arel.List, len(values))
		var err error
		for i, v := range values {
			n, oerr := operand(v)
			list[i] = n
			err = firstErr(err, oerr)
		}
		return errNode(list, err)
	}
	n, err := operand(expr)
	return errNode(&arel.Grouping{Expr: n}, err)
}

// Exists builds EXISTS(subquery) for a relation or query.
func (d *DSL) Exists(rel any) Node {
	return d.exists("EXISTS", rel)
}

// NotExists builds NOT EXISTS(subquery) for a relation or query.
func (d *DSL) NotExists(rel any) Node {
	return d.exists("NOT EXISTS", rel)
}

func (d *DSL) exists(fn string, rel any) Node {
	sql, err := relationSQL(rel)
	if err != nil {
		d.record(err)
	}
	return errNode(&arel.NamedFunction{Name: fn, Args: []arel.Node{arel.Sql(sql)}}, err)
}

func relationSQL(v any) (string, error) {
	switch r := v.(type) {
	case *relation.Relation:
		if r != nil {
			return r.ToSQL()
		}
	case *Query:
		if r != nil {
			return r.ToSQL()
		}
	}
	return "", &relation.ArgumentError{Method: "Exists", Value: v}
}

// My calls block with the caller given by WithCaller, giving a block
// access to state outside the DSL.
func (d *DSL) My(block func(caller any) any) any {
	return block(d.opts.caller)
}

// Evaluate runs block on a fresh evaluation and unwraps the result:
// expressions become arel nodes, slices become []any and nil stays nil.
// In compatibility mode true and false become the literals 1 and 0. The
// first error recorded during the evaluation is returned.
func (d *DSL) Evaluate(block func(*DSL) any) (any, error) {
	v, e := d.run(block)
	if e.err != nil {
		return nil, e.err
	}
	return unwrap(v)
}

// run evaluates block on a fresh DSL and returns the raw result.
func (d *DSL) run(block func(*DSL) any) (any, *DSL) {
	e := newDSL(d.rel, d.opts)
	v := block(e)
	if b, ok := v.(bool); ok && d.opts.compat {
		if b {
			return e.Sql("1"), e
		}
		return e.Sql("0"), e
	}
	return v, e
}

func unwrap(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Expr:
		return t.Arel(), errOf(t)
	}
	values, ok := arel.Expand(v)
	if !ok {
		return v, nil
	}
	out := make([]any, len(values))
	for i, e := range values {
		u, err := unwrap(e)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

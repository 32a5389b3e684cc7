package squeel

import (
	"fmt"
	"slices"

	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/relation"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// Table is a scope inside a DSL block: the root model of the query, an
// association target or a table named by a fuzzy attribute.
type Table struct {
	dsl   *DSL
	model *schema.Model
	table *arel.Table

	kind arel.JoinKind
	on   arel.Node
	via  *Association
	err  error

	resolver *Resolver
}

func newTable(d *DSL, model *schema.Model, t *arel.Table) *Table {
	return &Table{dsl: d, model: model, table: t, kind: arel.InnerJoin}
}

// Arel returns the arel table.
func (t *Table) Arel() arel.Node { return t.table }

// Err returns the error recorded while building the table.
func (t *Table) Err() error { return t.err }

// Model returns the model behind the table, or nil for tables named by
// fuzzy attributes and polymorphic associations that were not narrowed.
func (t *Table) Model() *schema.Model { return t.model }

// Name returns the name the table is referenced by in SQL.
func (t *Table) Name() string { return t.table.Ref() }

func (t *Table) fail(err error) {
	if t.dsl != nil {
		t.dsl.record(err)
	}
}

func (t *Table) strategies() []Strategy {
	if t.dsl == nil {
		return defaultStrategies
	}
	return t.dsl.Strategies()
}

// Resolver returns the resolver for names on t.
func (t *Table) Resolver() *Resolver {
	if t.resolver == nil {
		t.resolver = NewResolver(t, t.strategies()...)
	}
	return t.resolver
}

// Get resolves name with the configured strategies. The result is a Node
// for function calls, an *Attribute for columns, an *Association for
// associations and a *FuzzyAttribute otherwise; use Func, Attr or Assoc
// when the kind is known. Unresolved names record ErrUnresolvedName and
// yield a placeholder column Node.
func (t *Table) Get(name string, args ...any) Expr {
	e, err := t.Resolver().Resolve(name, args...)
	if err != nil {
		t.fail(err)
		return errNode(t.table.Col(name), err)
	}
	return e
}

// Attr references column name. Undeclared columns are accepted when fuzzy
// attributes are enabled and recorded as ErrUnresolvedName otherwise.
func (t *Table) Attr(name string) *Attribute {
	if t.model == nil || t.model.HasColumn(name) || slices.Contains(t.strategies(), StrategyFuzzyAttribute) {
		return newAttribute(t, name)
	}
	err := &ResolveError{Table: t.Name(), Name: name}
	t.fail(err)
	a := newAttribute(t, name)
	a.err = err
	return a
}

// Assoc references the association called name.
func (t *Table) Assoc(name string) *Association {
	if t.model != nil {
		if a, ok := t.model.Association(name); ok {
			return t.association(a)
		}
	}
	model := "?"
	if t.model != nil {
		model = t.model.Name
	}
	err := fmt.Errorf("%w: %s.%s", relation.ErrUnknownAssociation, model, name)
	t.fail(err)
	a := &Association{parent: t}
	a.Table = newTable(t.dsl, nil, arel.NewTable(name))
	a.Table.via = a
	a.Table.err = err
	return a
}

// Func calls the SQL function name. Nil arguments become NULL.
func (t *Table) Func(name string, args ...any) Node {
	nodes := make([]arel.Node, len(args))
	var err error
	for i, arg := range args {
		if arg == nil {
			nodes[i] = arel.Sql("NULL")
			continue
		}
		n, aerr := operand(arg)
		nodes[i] = n
		err = firstErr(err, aerr)
	}
	return errNode(&arel.NamedFunction{Name: name, Args: nodes}, err)
}

// Star selects every column of the table.
func (t *Table) Star() Node {
	return NewNode(t.table.Star())
}

func (t *Table) clone() *Table {
	c := *t
	c.resolver = nil
	return &c
}

// Alias returns a copy of the table referenced as name.
func (t *Table) Alias(name string) *Table {
	c := t.clone()
	c.table = t.table.As(name)
	return c
}

// On returns a copy of the table joined with cond instead of the
// association's own condition.
func (t *Table) On(cond any) *Table {
	c := t.clone()
	n, err := operand(cond)
	c.on = n
	c.err = firstErr(c.err, err)
	return c
}

// Outer returns a copy of the table joined with LEFT OUTER JOIN.
func (t *Table) Outer() *Table {
	c := t.clone()
	c.kind = arel.LeftOuterJoin
	return c
}

// Sift applies the sifter called name defined for the table's model.
func (t *Table) Sift(name string, args ...any) Node {
	var (
		fn Sifter
		ok bool
	)
	if t.dsl != nil && t.model != nil {
		fn, ok = t.dsl.opts.sifters.Lookup(t.model.Name, name)
	}
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownSifter, name)
		t.fail(err)
		return errNode(arel.Sql("NULL"), err)
	}

	v := fn(t, args...)
	switch r := v.(type) {
	case Expr:
		return errNode(r.Arel(), errOf(r))
	case arel.Node:
		return NewNode(r)
	default:
		err := &relation.ArgumentError{Method: "Sift", Value: v}
		t.fail(err)
		return errNode(arel.Sql("NULL"), err)
	}
}

// joinNodes returns the joins needed to reach the table.
func (t *Table) joinNodes() ([]arel.Node, error) {
	if t.via != nil {
		return t.via.joinNodes()
	}
	if t.err != nil {
		return nil, t.err
	}
	if t.on == nil {
		return nil, &relation.ArgumentError{Method: "Joining", Value: t}
	}
	return []arel.Node{&arel.Join{Kind: t.kind, Table: t.table, On: t.on}}, nil
}

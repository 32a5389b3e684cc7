package squeel

import (
	"fmt"

	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/relation"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// Association is the target table of an association, reached from its
// parent table. It can be compared to records and joined.
type Association struct {
	*Table

	parent *Table
	assoc  *schema.Association
	target *schema.Model
}

func (t *Table) association(a *schema.Association) *Association {
	name := a.Name
	if a.Target != nil {
		name = a.Target.TableName
	}
	as := &Association{parent: t, assoc: a, target: a.Target}
	as.Table = newTable(t.dsl, a.Target, t.joinTable(a, name))
	as.Table.via = as
	return as
}

// joinTable references table name as the target of a joined from t. When
// the join chain leading to t already references name, the table is
// aliased after the association and t's table (posts_authors).
func (t *Table) joinTable(a *schema.Association, name string) *arel.Table {
	table := arel.NewTable(name)
	if t.references(name) {
		table = table.As(relation.JoinAlias(a, t.table, t.references))
	}
	return table
}

// references reports whether t or a table on its join chain is referenced
// as name.
func (t *Table) references(name string) bool {
	for cur := t; cur != nil; {
		if cur.table.Ref() == name {
			return true
		}
		if cur.via == nil {
			return false
		}
		cur = cur.via.parent
	}
	return false
}

// Schema returns the association declaration, or nil when the name did not
// resolve.
func (a *Association) Schema() *schema.Association { return a.assoc }

// Parent returns the table the association was reached from.
func (a *Association) Parent() *Table { return a.parent }

// Target returns the associated model. It is nil for a polymorphic
// belongs-to that was not narrowed with Of.
func (a *Association) Target() *schema.Model { return a.target }

func (a *Association) copy(t *Table) *Association {
	c := *a
	c.Table = t
	t.via = &c
	return &c
}

// Of narrows a polymorphic belongs-to to model.
func (a *Association) Of(model *schema.Model) *Association {
	c := a.copy(a.Table.clone())
	if a.assoc == nil || !a.assoc.Polymorphic {
		err := fmt.Errorf("%s is not polymorphic: %w", a.Name(), relation.ErrUnsupportedArgument)
		a.fail(err)
		c.Table.err = firstErr(c.Table.err, err)
		return c
	}
	c.target = model
	c.Table.model = model
	c.Table.table = a.parent.joinTable(a.assoc, model.TableName)
	return c
}

// Alias returns a copy of the association referenced as name.
func (a *Association) Alias(name string) *Association {
	return a.copy(a.Table.Alias(name))
}

// On returns a copy of the association joined with cond.
func (a *Association) On(cond any) *Association {
	return a.copy(a.Table.On(cond))
}

// Outer returns a copy of the association joined with LEFT OUTER JOIN.
func (a *Association) Outer() *Association {
	return a.copy(a.Table.Outer())
}

// Eq compares the association to a record or nil through its foreign key.
// Polymorphic associations also compare the type column.
func (a *Association) Eq(v any) Node {
	cond, err := a.equality(v)
	return errNode(cond, err)
}

// NotEq is the negation of Eq.
func (a *Association) NotEq(v any) Node {
	cond, err := a.equality(v)
	return errNode(&arel.Not{Expr: cond}, err)
}

func (a *Association) equality(v any) (arel.Node, error) {
	if a.Table.err != nil {
		return arel.Sql("NULL"), a.Table.err
	}
	if a.assoc.Kind != schema.BelongsTo {
		return arel.Sql("NULL"), a.comparisonError(v)
	}

	fk := a.parent.table.Col(a.assoc.ForeignKey)
	switch r := v.(type) {
	case nil:
		return arel.Eq(fk, nil), nil
	case *relation.Record:
		if r == nil {
			return arel.Eq(fk, nil), nil
		}
		cond := arel.Eq(fk, r.ID())
		if a.assoc.Polymorphic {
			return arel.NewAnd(cond, arel.Eq(a.parent.table.Col(a.assoc.TypeColumn()), r.Model.BaseName())), nil
		}
		return cond, nil
	default:
		return arel.Sql("NULL"), a.comparisonError(v)
	}
}

func (a *Association) comparisonError(v any) error {
	err := &AssociationComparisonError{Association: a.assoc.Name, Value: v}
	a.fail(err)
	return err
}

// joinNodes joins every association from the root table down to a.
func (a *Association) joinNodes() ([]arel.Node, error) {
	var chain []*Association
	for cur := a; cur != nil; cur = cur.parent.via {
		chain = append([]*Association{cur}, chain...)
	}

	out := make([]arel.Node, 0, len(chain))
	for _, c := range chain {
		if c.Table.err != nil {
			return nil, c.Table.err
		}
		if c.Table.on != nil {
			out = append(out, &arel.Join{Kind: c.Table.kind, Table: c.Table.table, On: c.Table.on})
			continue
		}
		if c.target == nil {
			return nil, fmt.Errorf("%s: %w", c.assoc.Name, relation.ErrPolymorphicJoin)
		}
		join, err := relation.AssociationJoin(c.Table.kind, c.parent.table, c.assoc, c.Table.table, c.target)
		if err != nil {
			return nil, err
		}
		out = append(out, join)
	}
	return out, nil
}

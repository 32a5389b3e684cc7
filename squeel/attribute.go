package squeel

import (
	"github.com/satishbabariya/babysqueel/query/arel"
)

// Attribute is a column reference. Without a table it renders as the bare
// quoted column name.
type Attribute struct {
	Node
	table *Table
	name  string
}

func newAttribute(t *Table, name string) *Attribute {
	var rel *arel.Table
	if t != nil {
		rel = t.table
	}
	return &Attribute{Node: NewNode(arel.NewAttribute(rel, name)), table: t, name: name}
}

// NewAttribute returns an unqualified column reference.
func NewAttribute(name string) *Attribute {
	return newAttribute(nil, name)
}

// Name returns the column name.
func (a *Attribute) Name() string { return a.name }

// Table returns the table the column belongs to, or nil.
func (a *Attribute) Table() *Table { return a.table }

// FuzzyAttribute is an attribute that was not checked against the declared
// columns. Get on it names a column of a table called after the attribute,
// so authors.Get("name") refers to "authors"."name".
type FuzzyAttribute struct {
	*Attribute
}

func newFuzzyAttribute(t *Table, name string) *FuzzyAttribute {
	return &FuzzyAttribute{Attribute: newAttribute(t, name)}
}

// Get returns a fuzzy attribute for column name on the table named after f.
func (f *FuzzyAttribute) Get(name string) *FuzzyAttribute {
	var d *DSL
	if f.table != nil {
		d = f.table.dsl
	}
	return newFuzzyAttribute(newTable(d, nil, arel.NewTable(f.name)), name)
}

package arel

// Table is a table reference, optionally aliased.
type Table struct {
	Name  string
	Alias string
}

// NewTable creates a table reference.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// As returns an aliased copy of the table.
func (t *Table) As(alias string) *Table {
	return &Table{Name: t.Name, Alias: alias}
}

// Ref is the name used to qualify columns: the alias when set.
func (t *Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Col returns a column of the table.
func (t *Table) Col(name string) *Attribute {
	return &Attribute{Relation: t, Name: name}
}

// Star returns table.*.
func (t *Table) Star() *Star {
	return &Star{Table: t}
}

// Attribute is a column reference. A nil Relation renders the bare quoted
// column name.
type Attribute struct {
	Relation *Table
	Name     string
}

// NewAttribute creates a column reference.
func NewAttribute(t *Table, name string) *Attribute {
	return &Attribute{Relation: t, Name: name}
}

// Star renders * or table.*.
type Star struct {
	Table *Table
}

// SelectStatement is a complete SELECT query.
type SelectStatement struct {
	Distinct    bool
	Projections []Node
	From        *Table
	Joins       []Node
	Wheres      []Node
	Groups      []Node
	Havings     []Node
	Orders      []Node
	Limit       *int
	Offset      *int
}

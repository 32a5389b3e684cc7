// Package schema describes models: their tables, columns and associations.
package schema

import (
	"github.com/iancoleman/strcase"
)

// AssociationKind is the cardinality of an association.
type AssociationKind string

const (
	BelongsTo AssociationKind = "belongsTo"
	HasOne    AssociationKind = "hasOne"
	HasMany   AssociationKind = "hasMany"
)

// Column is a declared column of a model.
type Column struct {
	Name       string
	Type       string
	Optional   bool
	PrimaryKey bool
}

// Association is a declared relation between two models.
type Association struct {
	Name string
	Kind AssociationKind
	// ModelName is the target model. Empty for polymorphic belongs-to.
	ModelName string
	// ForeignKey lives on the owner for belongs-to and on the target for
	// has-one / has-many.
	ForeignKey string
	// ForeignType is the type discriminator column of a polymorphic
	// belongs-to.
	ForeignType string
	Polymorphic bool
	// As names the polymorphic belongs-to on the target that a has-many or
	// has-one goes through.
	As string

	Owner  *Model
	Target *Model
}

// IsCollection reports whether the association loads many records.
func (a *Association) IsCollection() bool {
	return a.Kind == HasMany
}

// TypeColumn is the discriminator column used by polymorphic associations,
// either on the owner (belongs-to) or on the target (has-many ... as).
func (a *Association) TypeColumn() string {
	if a.ForeignType != "" {
		return a.ForeignType
	}
	if a.As != "" {
		return a.As + "_type"
	}
	return a.Name + "_type"
}

// Model describes a table and its relations.
type Model struct {
	Name       string
	TableName  string
	PrimaryKey string

	columns      []*Column
	columnIndex  map[string]*Column
	associations []*Association
	assocIndex   map[string]*Association
	registry     *Registry
}

// NewModel creates a model. The table defaults to the snake_cased, pluralised
// model name and the primary key to "id".
func NewModel(name string) *Model {
	return &Model{
		Name:        name,
		TableName:   strcase.ToSnake(name) + "s",
		PrimaryKey:  "id",
		columnIndex: make(map[string]*Column),
		assocIndex:  make(map[string]*Association),
	}
}

// Table overrides the table name.
func (m *Model) Table(name string) *Model {
	m.TableName = name
	return m
}

// Key overrides the primary key column.
func (m *Model) Key(column string) *Model {
	m.PrimaryKey = column
	if c, ok := m.columnIndex[column]; ok {
		for _, other := range m.columns {
			other.PrimaryKey = false
		}
		c.PrimaryKey = true
	}
	return m
}

// Columns declares untyped columns.
func (m *Model) Columns(names ...string) *Model {
	for _, name := range names {
		m.AddColumn(&Column{Name: name})
	}
	return m
}

// AddColumn declares a column, replacing an earlier one with the same name.
func (m *Model) AddColumn(c *Column) *Model {
	if c.Name == m.PrimaryKey {
		c.PrimaryKey = true
	}
	if _, exists := m.columnIndex[c.Name]; !exists {
		m.columns = append(m.columns, c)
	} else {
		for i, existing := range m.columns {
			if existing.Name == c.Name {
				m.columns[i] = c
			}
		}
	}
	m.columnIndex[c.Name] = c
	return m
}

// AddAssociation declares an association.
func (m *Model) AddAssociation(a *Association) *Model {
	a.Owner = m
	if _, exists := m.assocIndex[a.Name]; !exists {
		m.associations = append(m.associations, a)
	} else {
		for i, existing := range m.associations {
			if existing.Name == a.Name {
				m.associations[i] = a
			}
		}
	}
	m.assocIndex[a.Name] = a
	return m
}

// BelongsTo declares a belongs-to association.
func (m *Model) BelongsTo(name, model, foreignKey string) *Model {
	return m.AddAssociation(&Association{Name: name, Kind: BelongsTo, ModelName: model, ForeignKey: foreignKey})
}

// PolymorphicBelongsTo declares a belongs-to whose target type is stored in
// <name>_type next to the <name>_id foreign key.
func (m *Model) PolymorphicBelongsTo(name string) *Model {
	return m.AddAssociation(&Association{
		Name:        name,
		Kind:        BelongsTo,
		ForeignKey:  name + "_id",
		ForeignType: name + "_type",
		Polymorphic: true,
	})
}

// HasMany declares a has-many association.
func (m *Model) HasMany(name, model, foreignKey string) *Model {
	return m.AddAssociation(&Association{Name: name, Kind: HasMany, ModelName: model, ForeignKey: foreignKey})
}

// HasManyAs declares a has-many through the polymorphic belongs-to "as" on
// the target.
func (m *Model) HasManyAs(name, model, as string) *Model {
	return m.AddAssociation(&Association{Name: name, Kind: HasMany, ModelName: model, ForeignKey: as + "_id", As: as})
}

// HasOne declares a has-one association.
func (m *Model) HasOne(name, model, foreignKey string) *Model {
	return m.AddAssociation(&Association{Name: name, Kind: HasOne, ModelName: model, ForeignKey: foreignKey})
}

// Column returns a declared column.
func (m *Model) Column(name string) (*Column, bool) {
	c, ok := m.columnIndex[name]
	return c, ok
}

// HasColumn reports whether name is a declared column.
func (m *Model) HasColumn(name string) bool {
	_, ok := m.columnIndex[name]
	return ok
}

// ColumnList returns the declared columns in declaration order.
func (m *Model) ColumnList() []*Column {
	out := make([]*Column, len(m.columns))
	copy(out, m.columns)
	return out
}

// Association returns a declared association.
func (m *Model) Association(name string) (*Association, bool) {
	a, ok := m.assocIndex[name]
	return a, ok
}

// Associations returns the declared associations in declaration order.
func (m *Model) Associations() []*Association {
	out := make([]*Association, len(m.associations))
	copy(out, m.associations)
	return out
}

// Registry returns the registry the model belongs to, if any.
func (m *Model) Registry() *Registry {
	return m.registry
}

// BaseName is the value stored in polymorphic type columns.
func (m *Model) BaseName() string {
	return m.Name
}

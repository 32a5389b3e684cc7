package relation

import (
	"slices"

	"github.com/satishbabariya/babysqueel/query/arel"
)

// Arel builds the SELECT statement for the relation.
func (r *Relation) Arel() (*arel.SelectStatement, error) {
	if r.err != nil {
		return nil, r.err
	}

	stmt := &arel.SelectStatement{
		Distinct:    r.distinct,
		Projections: slices.Clone(r.selects),
		From:        r.table,
		Wheres:      slices.Clone(r.wheres),
		Groups:      slices.Clone(r.groups),
		Havings:     slices.Clone(r.havings),
		Orders:      slices.Clone(r.orders),
		Limit:       r.limit,
		Offset:      r.offset,
	}
	if len(stmt.Projections) == 0 {
		stmt.Projections = []arel.Node{r.table.Star()}
	}

	joined := r.clone()
	if len(r.eagerLoads) > 0 {
		tree, err := IncludeTree(r.eagerLoads...)
		if err != nil {
			return nil, err
		}
		joins, err := r.newJoinScope().associationJoins(arel.LeftOuterJoin, r.model, r.table, tree)
		if err != nil {
			return nil, err
		}
		for _, j := range joins {
			joined.addJoin(j)
		}
	}
	stmt.Joins = joined.joins

	if r.none {
		stmt.Wheres = append(stmt.Wheres, arel.Sql("1=0"))
	}
	return stmt, nil
}

// ToSQL renders the relation.
func (r *Relation) ToSQL() (string, error) {
	stmt, err := r.Arel()
	if err != nil {
		return "", err
	}
	return arel.ToSQL(stmt, r.dialect), nil
}

// SubquerySQL renders the relation for use inside IN (...). When nothing is
// selected the primary key is selected.
func (r *Relation) SubquerySQL() (string, error) {
	sub := r
	if len(r.selects) == 0 {
		sub = r.Select(r.table.Col(r.model.PrimaryKey))
	}
	return sub.ToSQL()
}

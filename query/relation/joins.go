package relation

import (
	"fmt"
	"sort"

	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// JoinCondition builds the ON condition that joins target to owner through
// association a. For a polymorphic belongs-to, targetModel selects the
// concrete model; otherwise it may be nil and a.Target is used.
func JoinCondition(owner *arel.Table, a *schema.Association, target *arel.Table, targetModel *schema.Model) (arel.Node, error) {
	if targetModel == nil {
		targetModel = a.Target
	}
	if targetModel == nil {
		return nil, ErrPolymorphicJoin
	}

	switch a.Kind {
	case schema.BelongsTo:
		cond := arel.Eq(target.Col(targetModel.PrimaryKey), owner.Col(a.ForeignKey))
		if a.Polymorphic {
			return arel.NewAnd(cond, arel.Eq(owner.Col(a.TypeColumn()), targetModel.BaseName())), nil
		}
		return cond, nil
	default:
		cond := arel.Eq(target.Col(a.ForeignKey), owner.Col(a.Owner.PrimaryKey))
		if a.As != "" {
			return arel.NewAnd(cond, arel.Eq(target.Col(a.TypeColumn()), a.Owner.BaseName())), nil
		}
		return cond, nil
	}
}

// AssociationJoin joins the target of a onto owner.
func AssociationJoin(kind arel.JoinKind, owner *arel.Table, a *schema.Association, target *arel.Table, targetModel *schema.Model) (*arel.Join, error) {
	on, err := JoinCondition(owner, a, target, targetModel)
	if err != nil {
		return nil, err
	}
	return &arel.Join{Kind: kind, Table: target, On: on}, nil
}

func (r *Relation) joinArgs(method string, kind arel.JoinKind, args []any) error {
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case string:
			if !isIdentifier(v) {
				r.addJoin(&arel.StringJoin{SQL: v})
				continue
			}
			if err := r.joinTree(kind, v); err != nil {
				return err
			}
		case []string:
			if err := r.joinTree(kind, v); err != nil {
				return err
			}
		case map[string]any:
			if err := r.joinTree(kind, v); err != nil {
				return err
			}
		case []any:
			if err := r.joinArgs(method, kind, v); err != nil {
				return err
			}
		case *arel.Join:
			r.addJoin(v)
		case *arel.StringJoin:
			r.addJoin(v)
		case arel.SqlLiteral:
			r.addJoin(&arel.StringJoin{SQL: string(v)})
		default:
			return &ArgumentError{Method: method, Value: arg}
		}
	}
	return nil
}

func (r *Relation) joinTree(kind arel.JoinKind, tree any) error {
	root, err := IncludeTree(tree)
	if err != nil {
		return err
	}
	joins, err := r.newJoinScope().associationJoins(kind, r.model, r.table, root)
	if err != nil {
		return err
	}
	for _, j := range joins {
		r.addJoin(j)
	}
	return nil
}

// JoinAlias names the second reference to the target table of a when it
// is joined from parent: the association name followed by the parent's
// table name (posts_authors). taken reports names already in use; a
// numeric suffix is added until the name is free.
func JoinAlias(a *schema.Association, parent *arel.Table, taken func(string) bool) string {
	base := a.Name + "_" + parent.Name
	alias := base
	for n := 2; taken(alias); n++ {
		alias = fmt.Sprintf("%s_%d", base, n)
	}
	return alias
}

// joinScope tracks the table references of a statement.
type joinScope struct {
	dialect  arel.Dialect
	used     map[string]bool
	rendered map[string]bool
}

func (r *Relation) newJoinScope() *joinScope {
	s := &joinScope{
		dialect:  r.dialect,
		used:     map[string]bool{r.table.Ref(): true},
		rendered: make(map[string]bool),
	}
	for _, j := range r.joins {
		s.add(j)
	}
	return s
}

func (s *joinScope) add(j arel.Node) {
	s.rendered[arel.ToSQL(j, s.dialect)] = true
	if join, ok := j.(*arel.Join); ok {
		s.used[join.Table.Ref()] = true
	}
}

func (s *joinScope) taken(name string) bool { return s.used[name] }

// associationJoins walks the include tree depth first and joins each
// association onto its parent's table. A join identical to one already
// present is reused; a table that is already referenced is aliased.
func (s *joinScope) associationJoins(kind arel.JoinKind, model *schema.Model, table *arel.Table, node *Include) ([]arel.Node, error) {
	var out []arel.Node
	for _, name := range node.Names() {
		a, ok := model.Association(name)
		if !ok {
			return nil, unknownAssociation(model.Name, name)
		}
		if a.Target == nil {
			return nil, ErrPolymorphicJoin
		}
		target := arel.NewTable(a.Target.TableName)
		join, err := AssociationJoin(kind, table, a, target, nil)
		if err != nil {
			return nil, err
		}
		if !s.rendered[arel.ToSQL(join, s.dialect)] {
			if s.taken(target.Ref()) {
				target = target.As(JoinAlias(a, table, s.taken))
				if join, err = AssociationJoin(kind, table, a, target, nil); err != nil {
					return nil, err
				}
			}
			s.add(join)
		}
		out = append(out, join)

		nested, err := s.associationJoins(kind, a.Target, target, node.Nested[name])
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// addJoin appends j unless an identical clause is already present.
func (r *Relation) addJoin(j arel.Node) {
	sql := arel.ToSQL(j, r.dialect)
	for _, existing := range r.joins {
		if arel.ToSQL(existing, r.dialect) == sql {
			return
		}
	}
	r.joins = append(r.joins, j)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

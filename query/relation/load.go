package relation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/babysqueel/internal/debug"
	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// Queryer runs a query. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Load executes the relation, loads the requested associations and applies
// record filters.
func (r *Relation) Load(ctx context.Context, q Queryer) ([]*Record, error) {
	query, err := r.ToSQL()
	if err != nil {
		return nil, err
	}
	records, err := fetch(ctx, q, r.model, query)
	if err != nil {
		return nil, err
	}
	if len(r.eagerLoads) > 0 {
		records = uniqueRecords(records)
	}

	tree, err := IncludeTree(r.includes, r.eagerLoads, r.preloads)
	if err != nil {
		return nil, err
	}
	if err := preload(ctx, q, r.dialect, r.model, records, tree); err != nil {
		return nil, err
	}

	for _, filter := range r.filters {
		kept := records[:0:0]
		for _, rec := range records {
			if filter(rec) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	return records, nil
}

func fetch(ctx context.Context, q Queryer, model *schema.Model, query string) ([]*Record, error) {
	debug.Debug("relation: load", "model", model.Name, "sql", query)

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", model.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", model.Name, err)
	}

	var records []*Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("load %s: %w", model.Name, err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		records = append(records, NewRecord(model, row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", model.Name, err)
	}
	return records, nil
}

func uniqueRecords(records []*Record) []*Record {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, rec := range records {
		k := keyOf(rec.ID())
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, rec)
	}
	return out
}

func preload(ctx context.Context, q Queryer, d arel.Dialect, model *schema.Model, records []*Record, node *Include) error {
	if len(records) == 0 || !node.HasNested() {
		return nil
	}
	for _, name := range node.Names() {
		a, ok := model.Association(name)
		if !ok {
			return unknownAssociation(model.Name, name)
		}
		child := node.Nested[name]

		var err error
		switch {
		case a.Kind == schema.BelongsTo && a.Polymorphic:
			err = preloadPolymorphic(ctx, q, d, model, a, records, child)
		case a.Kind == schema.BelongsTo:
			err = preloadBelongsTo(ctx, q, d, a, a.Target, records, child)
		default:
			err = preloadHasMany(ctx, q, d, model, a, records, child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func distinctValues(records []*Record, column string) []any {
	seen := make(map[string]bool)
	var out []any
	for _, rec := range records {
		v := rec.Get(column)
		if v == nil {
			continue
		}
		if k := keyOf(v); !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

func preloadBelongsTo(ctx context.Context, q Queryer, d arel.Dialect, a *schema.Association, target *schema.Model, records []*Record, child *Include) error {
	index := make(map[string]*Record)
	if keys := distinctValues(records, a.ForeignKey); len(keys) > 0 {
		rel := New(target, WithDialect(d))
		rel = rel.Where(arel.NewIn(rel.table.Col(target.PrimaryKey), keys))
		loaded, err := loadTree(ctx, q, rel, child)
		if err != nil {
			return err
		}
		for _, rec := range loaded {
			index[keyOf(rec.ID())] = rec
		}
	}
	for _, rec := range records {
		fk := rec.Get(a.ForeignKey)
		if fk == nil {
			rec.setOne(a.Name, nil)
			continue
		}
		rec.setOne(a.Name, index[keyOf(fk)])
	}
	return nil
}

func preloadPolymorphic(ctx context.Context, q Queryer, d arel.Dialect, model *schema.Model, a *schema.Association, records []*Record, child *Include) error {
	var types []string
	byType := make(map[string][]*Record)
	for _, rec := range records {
		t, ok := rec.Get(a.TypeColumn()).(string)
		if !ok || t == "" {
			rec.setOne(a.Name, nil)
			continue
		}
		if _, seen := byType[t]; !seen {
			types = append(types, t)
		}
		byType[t] = append(byType[t], rec)
	}

	for _, t := range types {
		var target *schema.Model
		if reg := model.Registry(); reg != nil {
			target, _ = reg.Model(t)
		}
		if target == nil {
			return fmt.Errorf("%s.%s: %w: %s", model.Name, a.Name, schema.ErrUnknownModel, t)
		}
		if err := preloadBelongsTo(ctx, q, d, a, target, byType[t], child); err != nil {
			return err
		}
	}
	return nil
}

func preloadHasMany(ctx context.Context, q Queryer, d arel.Dialect, model *schema.Model, a *schema.Association, records []*Record, child *Include) error {
	for _, rec := range records {
		if rec.ID() == nil {
			return fmt.Errorf("%s.%s: %w %q", model.Name, a.Name, ErrMissingPrimaryKey, model.PrimaryKey)
		}
	}

	rel := New(a.Target, WithDialect(d))
	rel = rel.Where(arel.NewIn(rel.table.Col(a.ForeignKey), distinctValues(records, model.PrimaryKey)))
	if a.As != "" {
		rel = rel.Where(arel.Eq(rel.table.Col(a.TypeColumn()), model.BaseName()))
	}
	loaded, err := loadTree(ctx, q, rel, child)
	if err != nil {
		return err
	}

	groups := make(map[string][]*Record)
	for _, rec := range loaded {
		k := keyOf(rec.Get(a.ForeignKey))
		groups[k] = append(groups[k], rec)
	}
	for _, rec := range records {
		group := groups[keyOf(rec.ID())]
		if a.Kind == schema.HasOne {
			var one *Record
			if len(group) > 0 {
				one = group[0]
			}
			rec.setOne(a.Name, one)
			continue
		}
		if group == nil {
			group = []*Record{}
		}
		rec.setMany(a.Name, group)
	}
	return nil
}

func loadTree(ctx context.Context, q Queryer, rel *Relation, node *Include) ([]*Record, error) {
	query, err := rel.ToSQL()
	if err != nil {
		return nil, err
	}
	records, err := fetch(ctx, q, rel.model, query)
	if err != nil {
		return nil, err
	}
	if err := preload(ctx, q, rel.dialect, rel.model, records, node); err != nil {
		return nil, err
	}
	return records, nil
}

package relation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/satishbabariya/babysqueel/query/arel"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	orderPattern      = regexp.MustCompile(`(?i)^([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)\s+(asc|desc)$`)
)

func isIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// attribute resolves "column" against the relation's table and
// "table.column" against the named table.
func (r *Relation) attribute(name string) *arel.Attribute {
	if table, column, ok := strings.Cut(name, "."); ok {
		return arel.NewTable(table).Col(column)
	}
	return r.table.Col(name)
}

func (r *Relation) attributeOrLiteral(s string) arel.Node {
	if isIdentifier(s) {
		return r.attribute(s)
	}
	return arel.Sql(s)
}

func (r *Relation) conditions(method string, args []any) ([]arel.Node, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if raw, ok := args[0].(string); ok {
		sql, err := r.bind(raw, args[1:])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		return []arel.Node{&arel.Grouping{Expr: arel.Sql(sql)}}, nil
	}

	var out []arel.Node
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case arel.Node:
			out = append(out, v)
		case []arel.Node:
			out = append(out, v...)
		case map[string]any:
			nodes, err := r.hashConditions(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", method, err)
			}
			out = append(out, nodes...)
		default:
			return nil, &ArgumentError{Method: method, Value: arg}
		}
	}
	return out, nil
}

func (r *Relation) hashConditions(hash map[string]any) ([]arel.Node, error) {
	keys := make([]string, 0, len(hash))
	for k := range hash {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]arel.Node, 0, len(keys))
	for _, k := range keys {
		attr := r.attribute(k)
		switch v := hash[k].(type) {
		case *Relation:
			if v == nil {
				return nil, &ArgumentError{Method: "Where", Value: v}
			}
			sub, err := v.SubquerySQL()
			if err != nil {
				return nil, err
			}
			out = append(out, &arel.In{Left: attr, Right: &arel.Grouping{Expr: arel.Sql(sub)}})
		default:
			if values, ok := arel.Expand(v); ok {
				out = append(out, arel.Membership(attr, arel.Flatten(values), false))
				continue
			}
			out = append(out, arel.Eq(attr, v))
		}
	}
	return out, nil
}

// bind replaces each ? in raw with the next quoted value.
func (r *Relation) bind(raw string, values []any) (string, error) {
	if len(values) == 0 {
		return raw, nil
	}
	var sb strings.Builder
	i := 0
	for _, ch := range raw {
		if ch != '?' {
			sb.WriteRune(ch)
			continue
		}
		if i >= len(values) {
			return "", fmt.Errorf("%w (%d for %d)", ErrBindVariables, len(values), strings.Count(raw, "?"))
		}
		quoted, err := r.quoteBind(values[i])
		if err != nil {
			return "", err
		}
		sb.WriteString(quoted)
		i++
	}
	if i != len(values) {
		return "", fmt.Errorf("%w (%d for %d)", ErrBindVariables, len(values), i)
	}
	return sb.String(), nil
}

func (r *Relation) quoteBind(v any) (string, error) {
	switch t := v.(type) {
	case *Relation:
		if t == nil {
			return "", &ArgumentError{Method: "Where", Value: v}
		}
		return t.SubquerySQL()
	case arel.Node:
		return arel.ToSQL(t, r.dialect), nil
	}
	if values, ok := arel.Expand(v); ok {
		parts := make([]string, len(values))
		for i, e := range values {
			q, err := r.quoteBind(e)
			if err != nil {
				return "", err
			}
			parts[i] = q
		}
		return strings.Join(parts, ", "), nil
	}
	return r.dialect.QuoteValue(v), nil
}

func (r *Relation) expressions(method string, arg any, fromString func(string) arel.Node) ([]arel.Node, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case string:
		return []arel.Node{fromString(v)}, nil
	case []string:
		out := make([]arel.Node, len(v))
		for i, s := range v {
			out[i] = fromString(s)
		}
		return out, nil
	case arel.Node:
		return []arel.Node{v}, nil
	case []arel.Node:
		return v, nil
	case []any:
		var out []arel.Node
		for _, e := range v {
			nodes, err := r.expressions(method, e, fromString)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	default:
		return nil, &ArgumentError{Method: method, Value: arg}
	}
}

func (r *Relation) orderings(arg any) ([]arel.Node, error) {
	if hash, ok := arg.(map[string]string); ok {
		keys := make([]string, 0, len(hash))
		for k := range hash {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]arel.Node, len(keys))
		for i, k := range keys {
			out[i] = &arel.Ordering{Expr: r.attribute(k), Desc: strings.EqualFold(hash[k], "desc")}
		}
		return out, nil
	}
	return r.expressions("Order", arg, func(s string) arel.Node {
		if isIdentifier(s) {
			return &arel.Ordering{Expr: r.attribute(s)}
		}
		if m := orderPattern.FindStringSubmatch(s); m != nil {
			return &arel.Ordering{Expr: r.attribute(m[1]), Desc: strings.EqualFold(m[2], "desc")}
		}
		return arel.Sql(s)
	})
}

package arel

import (
	"strconv"
	"strings"
)

// ToSQL renders n as SQL text for the given dialect. Values are quoted
// inline.
func ToSQL(n Node, d Dialect) string {
	if d == nil {
		d = Postgres
	}
	v := &visitor{dialect: d}
	v.visit(n)
	return v.sb.String()
}

type visitor struct {
	dialect Dialect
	sb      strings.Builder
}

func (v *visitor) write(s string) {
	v.sb.WriteString(s)
}

func (v *visitor) visitAll(nodes []Node, sep string) {
	for i, n := range nodes {
		if i > 0 {
			v.write(sep)
		}
		v.visit(n)
	}
}

func (v *visitor) visit(n Node) {
	switch t := n.(type) {
	case nil:
		v.write("NULL")
	case SqlLiteral:
		v.write(string(t))
	case *Quoted:
		v.write(v.dialect.QuoteValue(t.Value))
	case *Binary:
		v.visitBinary(t)
	case *In:
		v.visitIn(t)
	case List:
		v.write("(")
		v.visitAll(t, ", ")
		v.write(")")
	case *Between:
		v.visit(t.Left)
		v.write(" BETWEEN ")
		v.visit(t.Low)
		v.write(" AND ")
		v.visit(t.High)
	case *And:
		v.visitAll(t.Children, " AND ")
	case *Or:
		v.visit(t.Left)
		v.write(" OR ")
		v.visit(t.Right)
	case *Not:
		v.write("NOT (")
		v.visit(t.Expr)
		v.write(")")
	case *Grouping:
		if inner, ok := t.Expr.(*Grouping); ok {
			v.visit(inner)
			return
		}
		v.write("(")
		v.visit(t.Expr)
		v.write(")")
	case *NamedFunction:
		v.write(t.Name)
		v.write("(")
		if t.Distinct {
			v.write("DISTINCT ")
		}
		v.visitAll(t.Args, ", ")
		v.write(")")
	case *As:
		v.visit(t.Expr)
		v.write(" AS ")
		v.write(v.dialect.QuoteIdentifier(t.Alias))
	case *Ordering:
		v.visit(t.Expr)
		if t.Desc {
			v.write(" DESC")
		} else {
			v.write(" ASC")
		}
	case *Join:
		v.write(string(t.Kind))
		v.write(" ")
		v.visit(t.Table)
		if t.On != nil {
			v.write(" ON ")
			v.visit(t.On)
		}
	case *StringJoin:
		v.write(t.SQL)
	case *Table:
		v.write(v.dialect.QuoteIdentifier(t.Name))
		if t.Alias != "" {
			v.write(" ")
			v.write(v.dialect.QuoteIdentifier(t.Alias))
		}
	case *Attribute:
		if t.Relation != nil {
			v.write(v.dialect.QuoteIdentifier(t.Relation.Ref()))
			v.write(".")
		}
		v.write(v.dialect.QuoteIdentifier(t.Name))
	case *Star:
		if t.Table != nil {
			v.write(v.dialect.QuoteIdentifier(t.Table.Ref()))
			v.write(".")
		}
		v.write("*")
	case *SelectStatement:
		v.visitSelect(t)
	}
}

func (v *visitor) visitBinary(b *Binary) {
	v.visit(b.Left)
	switch {
	case b.Op == OpEq && IsNull(b.Right):
		v.write(" IS NULL")
		return
	case b.Op == OpNotEq && IsNull(b.Right):
		v.write(" IS NOT NULL")
		return
	case b.Op == OpMatches:
		v.write(" " + v.dialect.CaseInsensitiveLike() + " ")
	default:
		v.write(" " + string(b.Op) + " ")
	}
	v.visit(b.Right)
}

func (v *visitor) visitIn(in *In) {
	if list, ok := in.Right.(List); ok && len(list) == 0 {
		// An empty IN list matches nothing; NOT IN matches everything.
		if in.Negate {
			v.write("1=1")
		} else {
			v.write("1=0")
		}
		return
	}
	v.visit(in.Left)
	if in.Negate {
		v.write(" NOT IN ")
	} else {
		v.write(" IN ")
	}
	switch in.Right.(type) {
	case List, *Grouping:
		v.visit(in.Right)
	default:
		v.write("(")
		v.visit(in.Right)
		v.write(")")
	}
}

func (v *visitor) visitSelect(s *SelectStatement) {
	v.write("SELECT ")
	if s.Distinct {
		v.write("DISTINCT ")
	}
	if len(s.Projections) == 0 {
		v.write("*")
	} else {
		v.visitAll(s.Projections, ", ")
	}
	if s.From != nil {
		v.write(" FROM ")
		v.visit(s.From)
	}
	for _, j := range s.Joins {
		v.write(" ")
		v.visit(j)
	}
	if len(s.Wheres) > 0 {
		v.write(" WHERE ")
		v.visitAll(s.Wheres, " AND ")
	}
	if len(s.Groups) > 0 {
		v.write(" GROUP BY ")
		v.visitAll(s.Groups, ", ")
	}
	if len(s.Havings) > 0 {
		v.write(" HAVING ")
		v.visitAll(s.Havings, " AND ")
	}
	if len(s.Orders) > 0 {
		v.write(" ORDER BY ")
		v.visitAll(s.Orders, ", ")
	}
	if s.Limit != nil {
		v.write(" LIMIT " + strconv.Itoa(*s.Limit))
	}
	if s.Offset != nil {
		v.write(" OFFSET " + strconv.Itoa(*s.Offset))
	}
}

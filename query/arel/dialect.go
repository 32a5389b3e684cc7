package arel

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect quotes identifiers and values for a database provider.
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	QuoteValue(v any) string
	// CaseInsensitiveLike is the operator used for OpMatches.
	CaseInsensitiveLike() string
}

// DialectFor returns the dialect for a provider name. Unknown providers
// fall back to PostgreSQL.
func DialectFor(provider string) Dialect {
	switch strings.ToLower(provider) {
	case "mysql":
		return MySQL
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return Postgres
	}
}

var (
	Postgres Dialect = postgresDialect{}
	MySQL    Dialect = mysqlDialect{}
	SQLite   Dialect = sqliteDialect{}
)

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgresql" }

func (postgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (postgresDialect) QuoteValue(v any) string {
	return quoteValue(v, "TRUE", "FALSE", false)
}

func (postgresDialect) CaseInsensitiveLike() string { return "ILIKE" }

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) QuoteValue(v any) string {
	return quoteValue(v, "TRUE", "FALSE", true)
}

func (mysqlDialect) CaseInsensitiveLike() string { return "LIKE" }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) QuoteValue(v any) string {
	return quoteValue(v, "1", "0", false)
}

func (sqliteDialect) CaseInsensitiveLike() string { return "LIKE" }

func quoteValue(v any, trueLit, falseLit string, escapeBackslash bool) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return trueLit
		}
		return falseLit
	case int:
		return strconv.FormatInt(int64(t), 10)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return quoteString(t, escapeBackslash)
	case []byte:
		return quoteString(string(t), escapeBackslash)
	case time.Time:
		return quoteString(t.UTC().Format("2006-01-02 15:04:05.999999"), escapeBackslash)
	case driver.Valuer:
		val, err := t.Value()
		if err != nil {
			return "NULL"
		}
		return quoteValue(val, trueLit, falseLit, escapeBackslash)
	case fmt.Stringer:
		return quoteString(t.String(), escapeBackslash)
	default:
		return quoteString(fmt.Sprint(t), escapeBackslash)
	}
}

func quoteString(s string, escapeBackslash bool) string {
	if escapeBackslash {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

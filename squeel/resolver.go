package squeel

import (
	"strings"
	"sync"

	"github.com/satishbabariya/babysqueel/internal/debug"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// Strategy is one way of interpreting a name used inside a DSL block.
type Strategy int

const (
	// StrategyPolymorphicAssociation narrows a polymorphic belongs-to given
	// a single *schema.Model argument.
	StrategyPolymorphicAssociation Strategy = iota
	// StrategyFunction builds a SQL function call for registered function
	// names or when arguments are given.
	StrategyFunction
	// StrategyColumn references a declared column.
	StrategyColumn
	// StrategyAssociation references a declared association.
	StrategyAssociation
	// StrategyFuzzyAttribute references a column without checking it exists.
	StrategyFuzzyAttribute
)

var (
	defaultStrategies = []Strategy{StrategyFunction, StrategyColumn, StrategyAssociation}
	compatStrategies  = []Strategy{
		StrategyPolymorphicAssociation,
		StrategyFunction,
		StrategyColumn,
		StrategyAssociation,
		StrategyFuzzyAttribute,
	}
)

func (s Strategy) String() string {
	switch s {
	case StrategyPolymorphicAssociation:
		return "polymorphic_association"
	case StrategyFunction:
		return "function"
	case StrategyColumn:
		return "column"
	case StrategyAssociation:
		return "association"
	case StrategyFuzzyAttribute:
		return "fuzzy_attribute"
	default:
		return "unknown"
	}
}

var functions = struct {
	sync.RWMutex
	names map[string]bool
}{
	names: map[string]bool{
		"COUNT":    true,
		"SUM":      true,
		"AVG":      true,
		"MIN":      true,
		"MAX":      true,
		"COALESCE": true,
		"LOWER":    true,
		"UPPER":    true,
	},
}

// RegisterFunction makes names resolvable as SQL functions without
// arguments. Names are matched case-insensitively.
func RegisterFunction(names ...string) {
	functions.Lock()
	defer functions.Unlock()
	for _, name := range names {
		functions.names[strings.ToUpper(name)] = true
	}
}

// IsFunction reports whether name is a registered SQL function.
func IsFunction(name string) bool {
	functions.RLock()
	defer functions.RUnlock()
	return functions.names[strings.ToUpper(name)]
}

// Resolver turns names into expressions for one table. Results for names
// without arguments are memoized.
type Resolver struct {
	table      *Table
	strategies []Strategy
	memo       map[string]Expr
}

// NewResolver creates a resolver for t trying strategies in order.
func NewResolver(t *Table, strategies ...Strategy) *Resolver {
	return &Resolver{
		table:      t,
		strategies: strategies,
		memo:       make(map[string]Expr),
	}
}

// Strategies returns the strategies in the order they are tried.
func (r *Resolver) Strategies() []Strategy {
	return append([]Strategy(nil), r.strategies...)
}

// Resolve returns the expression of the first strategy that accepts name.
func (r *Resolver) Resolve(name string, args ...any) (Expr, error) {
	if len(args) == 0 {
		if e, ok := r.memo[name]; ok {
			return e, nil
		}
	}
	for _, s := range r.strategies {
		e, ok := r.try(s, name, args)
		if !ok {
			continue
		}
		debug.Debug("squeel: resolved name", "table", r.table.Name(), "name", name, "strategy", s)
		if len(args) == 0 {
			r.memo[name] = e
		}
		return e, nil
	}
	return nil, &ResolveError{Table: r.table.Name(), Name: name}
}

func (r *Resolver) try(s Strategy, name string, args []any) (Expr, bool) {
	t := r.table
	switch s {
	case StrategyPolymorphicAssociation:
		if t.model == nil || len(args) != 1 {
			return nil, false
		}
		a, ok := t.model.Association(name)
		if !ok || !a.Polymorphic {
			return nil, false
		}
		m, ok := args[0].(*schema.Model)
		if !ok {
			return nil, false
		}
		return t.association(a).Of(m), true
	case StrategyFunction:
		if len(args) == 0 && !IsFunction(name) {
			return nil, false
		}
		return t.Func(name, args...), true
	case StrategyColumn:
		if len(args) > 0 || t.model == nil || !t.model.HasColumn(name) {
			return nil, false
		}
		return newAttribute(t, name), true
	case StrategyAssociation:
		if len(args) > 0 || t.model == nil {
			return nil, false
		}
		a, ok := t.model.Association(name)
		if !ok {
			return nil, false
		}
		return t.association(a), true
	case StrategyFuzzyAttribute:
		if len(args) > 0 {
			return nil, false
		}
		return newFuzzyAttribute(t, name), true
	}
	return nil, false
}

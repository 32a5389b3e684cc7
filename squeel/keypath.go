package squeel

import (
	"slices"
	"strings"

	"github.com/satishbabariya/babysqueel/query/arel"
)

// KeyPath is an immutable chain of association names used to describe
// what to load: Root().Get("author").Get("posts") stands for
// {author: {posts: {}}}.
type KeyPath struct {
	path []string
}

// Root returns the empty path.
func Root() KeyPath {
	return KeyPath{}
}

// ParseKeyPath builds a path from dot notation. Empty segments are skipped.
func ParseKeyPath(dotted string) KeyPath {
	var p KeyPath
	for _, name := range strings.Split(dotted, ".") {
		if name != "" {
			p = p.Get(name)
		}
	}
	return p
}

// Get returns a new path with name appended.
func (p KeyPath) Get(name string) KeyPath {
	path := make([]string, len(p.path), len(p.path)+1)
	copy(path, p.path)
	return KeyPath{path: append(path, name)}
}

// Path returns the names in order.
func (p KeyPath) Path() []string {
	return slices.Clone(p.path)
}

// Len returns the number of names.
func (p KeyPath) Len() int {
	return len(p.path)
}

// Value converts the path into nested single-key mappings ending in an
// empty mapping.
func (p KeyPath) Value() map[string]any {
	acc := map[string]any{}
	for i := len(p.path) - 1; i >= 0; i-- {
		acc = map[string]any{p.path[i]: acc}
	}
	return acc
}

// String implements fmt.Stringer.
func (p KeyPath) String() string {
	return strings.Join(p.path, ".")
}

// Unwrap converts a block result into loading instructions. A KeyPath
// becomes its Value, a slice is unwrapped element by element and anything
// else becomes an empty list.
func Unwrap(v any) any {
	if p, ok := v.(KeyPath); ok {
		return p.Value()
	}
	values, ok := arel.Expand(v)
	if !ok {
		return []any{}
	}
	out := make([]any, len(values))
	for i, e := range values {
		out[i] = Unwrap(e)
	}
	return out
}

// EvaluatePaths runs block with the root path and returns the values to
// hand to Includes, EagerLoad or Preload. A list result is spread; a single
// path gives one value.
func EvaluatePaths(block func(KeyPath) any) []any {
	switch v := Unwrap(block(Root())).(type) {
	case []any:
		return v
	default:
		return []any{v}
	}
}

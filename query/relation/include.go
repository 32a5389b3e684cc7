package relation

import (
	"fmt"
	"sort"
	"strings"
)

// Include is a node of an association loading tree.
type Include struct {
	Name   string
	Nested map[string]*Include
}

// NewInclude creates an include node.
func NewInclude(name string) *Include {
	return &Include{
		Name:   name,
		Nested: make(map[string]*Include),
	}
}

// Add returns the nested include called name, creating it if needed.
func (i *Include) Add(name string) *Include {
	if nested, exists := i.Nested[name]; exists {
		return nested
	}
	nested := NewInclude(name)
	i.Nested[name] = nested
	return nested
}

// Names returns the nested association names in sorted order.
func (i *Include) Names() []string {
	return sortedKeys(i.Nested)
}

// HasNested reports whether there is anything below this node.
func (i *Include) HasNested() bool {
	return len(i.Nested) > 0
}

// Flatten lists every path below this node in dot notation, sorted.
// {posts: {author: {}}} becomes ["posts", "posts.author"].
func (i *Include) Flatten() []string {
	var out []string
	i.flatten("", &out)
	sort.Strings(out)
	return out
}

func (i *Include) flatten(prefix string, out *[]string) {
	for name, nested := range i.Nested {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		*out = append(*out, path)
		nested.flatten(path, out)
	}
}

// Map converts the tree below this node into nested mappings.
func (i *Include) Map() map[string]any {
	out := make(map[string]any, len(i.Nested))
	for name, nested := range i.Nested {
		out[name] = nested.Map()
	}
	return out
}

// IncludeTree merges loading instructions into one tree. Values may be
// association names (dotted for nesting), nested mappings, slices of those
// or *Include nodes.
func IncludeTree(values ...any) (*Include, error) {
	root := NewInclude("")
	for _, v := range values {
		if err := root.merge(v); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (i *Include) merge(v any) error {
	switch t := v.(type) {
	case nil:
	case string:
		node := i
		for _, part := range strings.Split(t, ".") {
			if part != "" {
				node = node.Add(part)
			}
		}
	case []string:
		for _, s := range t {
			if err := i.merge(s); err != nil {
				return err
			}
		}
	case []any:
		for _, e := range t {
			if err := i.merge(e); err != nil {
				return err
			}
		}
	case map[string]any:
		for name, nested := range t {
			if err := i.Add(name).merge(nested); err != nil {
				return err
			}
		}
	case *Include:
		for name, nested := range t.Nested {
			if err := i.Add(name).merge(nested); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("include: %w: %T", ErrUnsupportedArgument, v)
	}
	return nil
}

package schema

import (
	"errors"
	"fmt"
)

// Registry holds a set of models and links their associations.
type Registry struct {
	models map[string]*Model
	order  []string
}

// NewRegistry registers the models, links association targets and
// validates the result.
func NewRegistry(models ...*Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*Model)}
	for _, m := range models {
		if _, exists := r.models[m.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, m.Name)
		}
		m.registry = r
		r.models[m.Name] = m
		r.order = append(r.order, m.Name)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
func MustRegistry(models ...*Model) *Registry {
	r, err := NewRegistry(models...)
	if err != nil {
		panic(err)
	}
	return r
}

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns the models in registration order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

// Validate links association targets and checks foreign keys.
func (r *Registry) Validate() error {
	var errs []error
	for _, m := range r.Models() {
		for _, a := range m.associations {
			if err := r.link(m, a); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) link(m *Model, a *Association) error {
	invalid := func(reason string) error {
		return &AssociationError{Model: m.Name, Association: a.Name, Reason: reason, Cause: ErrInvalidAssociation}
	}

	if m.HasColumn(a.Name) {
		return invalid("name collides with a column")
	}

	if a.Polymorphic {
		if a.Kind != BelongsTo {
			return invalid("only belongs-to associations can be polymorphic")
		}
		if !m.HasColumn(a.ForeignKey) {
			return invalid(fmt.Sprintf("foreign key %q is not a column", a.ForeignKey))
		}
		if !m.HasColumn(a.TypeColumn()) {
			return invalid(fmt.Sprintf("type column %q is not a column", a.TypeColumn()))
		}
		return nil
	}

	target, ok := r.models[a.ModelName]
	if !ok {
		return invalid(fmt.Sprintf("target %q: %v", a.ModelName, ErrUnknownModel))
	}
	a.Target = target

	switch a.Kind {
	case BelongsTo:
		if !m.HasColumn(a.ForeignKey) {
			return invalid(fmt.Sprintf("foreign key %q is not a column", a.ForeignKey))
		}
	case HasOne, HasMany:
		if !target.HasColumn(a.ForeignKey) {
			return invalid(fmt.Sprintf("foreign key %q is not a column of %s", a.ForeignKey, target.Name))
		}
		if a.As != "" {
			inverse, ok := target.Association(a.As)
			if !ok || !inverse.Polymorphic {
				return invalid(fmt.Sprintf("%s has no polymorphic association %q", target.Name, a.As))
			}
		}
	default:
		return invalid(fmt.Sprintf("unknown kind %q", a.Kind))
	}
	return nil
}

package squeel

// Sifter builds a reusable condition for a model. It receives the table it
// is applied to and the arguments given to Sift.
type Sifter func(t *Table, args ...any) any

// Sifters holds sifters by model name.
type Sifters struct {
	defs map[string]map[string]Sifter
}

// NewSifters returns an empty set of sifters.
func NewSifters() *Sifters {
	return &Sifters{defs: make(map[string]map[string]Sifter)}
}

// Define adds the sifter name for model.
func (s *Sifters) Define(model, name string, fn Sifter) *Sifters {
	if s.defs[model] == nil {
		s.defs[model] = make(map[string]Sifter)
	}
	s.defs[model][name] = fn
	return s
}

// Lookup returns the sifter name for model.
func (s *Sifters) Lookup(model, name string) (Sifter, bool) {
	if s == nil {
		return nil, false
	}
	fn, ok := s.defs[model][name]
	return fn, ok
}

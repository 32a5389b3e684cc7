package relation

import (
	"fmt"

	"github.com/satishbabariya/babysqueel/query/schema"
)

// Record is one loaded row together with its loaded associations.
type Record struct {
	Model  *schema.Model
	Values map[string]any

	associations map[string]any
}

// NewRecord creates a record of model.
func NewRecord(model *schema.Model, values map[string]any) *Record {
	if values == nil {
		values = make(map[string]any)
	}
	return &Record{Model: model, Values: values, associations: make(map[string]any)}
}

// ID returns the primary key value.
func (r *Record) ID() any {
	return r.Values[r.Model.PrimaryKey]
}

// Get returns a column value.
func (r *Record) Get(column string) any {
	return r.Values[column]
}

// Loaded reports whether association name has been loaded.
func (r *Record) Loaded(name string) bool {
	_, ok := r.associations[name]
	return ok
}

// One returns a loaded belongs-to or has-one association.
func (r *Record) One(name string) *Record {
	rec, _ := r.associations[name].(*Record)
	return rec
}

// Many returns a loaded has-many association.
func (r *Record) Many(name string) []*Record {
	recs, _ := r.associations[name].([]*Record)
	return recs
}

func (r *Record) setOne(name string, rec *Record) {
	r.associations[name] = rec
}

func (r *Record) setMany(name string, recs []*Record) {
	r.associations[name] = recs
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	return fmt.Sprintf("%s(%v)", r.Model.Name, r.ID())
}

// keyOf is the map key for a scanned key value.
func keyOf(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

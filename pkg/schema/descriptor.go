package schema

import (
	"reflect"
	"sync"

	"github.com/go-openapi/inflect"
)

// Descriptor is the registered, read-only metadata for a record kind:
// ordered fields, the storage source name and associations. Built exactly
// once by Register; safe for concurrent use.
type Descriptor struct {
	name   string
	source string

	fields     []FieldSpec
	fieldIndex map[string]int

	assocs     []AssociationSpec
	assocIndex map[string]int

	primaryKey string // empty when registered without a primary key
}

// Name returns the registered kind name.
func (d *Descriptor) Name() string { return d.name }

// Source returns the storage source (table) name.
func (d *Descriptor) Source() string { return d.source }

// Field returns a copy of the spec for the named field, or nil if it does
// not exist. A copy keeps the descriptor's metadata immutable.
func (d *Descriptor) Field(name string) *FieldSpec {
	i, ok := d.fieldIndex[name]
	if !ok {
		return nil
	}
	f := d.fields[i]
	return &f
}

// Fields returns the field specs in declaration order.
func (d *Descriptor) Fields() []FieldSpec {
	out := make([]FieldSpec, len(d.fields))
	copy(out, d.fields)
	return out
}

// Association returns a copy of the spec for the named association, or nil.
func (d *Descriptor) Association(name string) *AssociationSpec {
	i, ok := d.assocIndex[name]
	if !ok {
		return nil
	}
	a := d.assocs[i]
	return &a
}

// Associations returns the association specs in declaration order.
func (d *Descriptor) Associations() []AssociationSpec {
	out := make([]AssociationSpec, len(d.assocs))
	copy(out, d.assocs)
	return out
}

// PrimaryKey returns the primary key field spec, or nil when the kind was
// registered without one.
func (d *Descriptor) PrimaryKey() *FieldSpec {
	if d.primaryKey == "" {
		return nil
	}
	return d.Field(d.primaryKey)
}

// Registry holds the descriptors for all registered record kinds.
// Registration happens once per kind at startup; lookups afterwards are
// concurrent-safe.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*registered
}

type registered struct {
	def  Definition
	desc *Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*registered)}
}

// Register validates a definition and returns its descriptor.
//
// It fails with *DuplicateFieldError when two fields share a name and with
// *PrimaryKeyError when the definition has zero primary keys (unless
// WithoutPrimaryKey is set) or more than one. Registering the same name
// again with identical metadata returns the existing descriptor;
// conflicting metadata fails with *ConflictError.
func (r *Registry) Register(def Definition) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.kinds[def.Name]; ok {
		if reflect.DeepEqual(prev.def, def) {
			return prev.desc, nil
		}
		return nil, &ConflictError{Definition: def.Name}
	}

	desc := &Descriptor{
		name:       def.Name,
		source:     def.Source,
		fields:     append([]FieldSpec(nil), def.Fields...),
		fieldIndex: make(map[string]int, len(def.Fields)),
		assocs:     append([]AssociationSpec(nil), def.Associations...),
		assocIndex: make(map[string]int, len(def.Associations)),
	}
	if desc.source == "" {
		desc.source = inflect.Pluralize(inflect.Underscore(def.Name))
	}

	pkCount := 0
	for i, f := range desc.fields {
		if _, dup := desc.fieldIndex[f.Name]; dup {
			return nil, &DuplicateFieldError{Definition: def.Name, Field: f.Name}
		}
		desc.fieldIndex[f.Name] = i
		if f.PrimaryKey {
			pkCount++
			desc.primaryKey = f.Name
		}
	}
	for i, a := range desc.assocs {
		if _, dup := desc.assocIndex[a.Name]; dup {
			return nil, &DuplicateFieldError{Definition: def.Name, Field: a.Name}
		}
		if _, dup := desc.fieldIndex[a.Name]; dup {
			return nil, &DuplicateFieldError{Definition: def.Name, Field: a.Name}
		}
		desc.assocIndex[a.Name] = i
	}

	if pkCount > 1 || (pkCount == 0 && !def.WithoutPrimaryKey) {
		return nil, &PrimaryKeyError{Definition: def.Name, Count: pkCount}
	}

	r.kinds[def.Name] = &registered{def: def, desc: desc}
	return desc, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.kinds[name]
	if !ok {
		return nil, &UnknownKindError{Name: name}
	}
	return reg.desc, nil
}

// MustRegister is Register but panics on error. Intended for startup wiring.
func (r *Registry) MustRegister(def Definition) *Descriptor {
	desc, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return desc
}

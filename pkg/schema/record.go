package schema

import "fmt"

// Row represents a single storage row as a map of column name → value.
// Values are backend-typed: string, int64, float64, bool, nil, time.Time.
type Row map[string]interface{}

// AssocState is the load state of an association slot on a record.
// "Not loaded" is distinct from "loaded and empty".
type AssocState int

const (
	AssocUnloaded AssocState = iota
	AssocLoaded
	AssocLoadedEmpty
)

// Assoc is the value of an association slot: a tagged three-state variant
// rather than a sentinel value.
type Assoc struct {
	State   AssocState
	Records []*Record
}

// Record is a value instance of a registered kind. Every field declared in
// the descriptor has a slot, even when no value has been set; every
// association starts out unloaded.
type Record struct {
	desc   *Descriptor
	fields map[string]interface{}
	assocs map[string]Assoc
}

// NewRecord returns an empty record for desc with defaults applied.
func NewRecord(desc *Descriptor) *Record {
	r := &Record{
		desc:   desc,
		fields: make(map[string]interface{}, len(desc.fields)),
		assocs: make(map[string]Assoc, len(desc.assocs)),
	}
	for _, f := range desc.fields {
		r.fields[f.Name] = f.Default
	}
	for _, a := range desc.assocs {
		r.assocs[a.Name] = Assoc{State: AssocUnloaded}
	}
	return r
}

// FromRow builds a record from a storage row, loading each column through
// the type registry. Columns not declared on the descriptor are ignored.
func FromRow(desc *Descriptor, row Row) (*Record, error) {
	r := NewRecord(desc)
	for _, f := range desc.fields {
		raw, ok := row[f.Name]
		if !ok {
			continue
		}
		v, err := Load(f.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("load %s.%s: %w", desc.name, f.Name, err)
		}
		r.fields[f.Name] = v
	}
	return r, nil
}

// Descriptor returns the record's schema descriptor.
func (r *Record) Descriptor() *Descriptor { return r.desc }

// Get returns the value of a field. Absent values are nil.
func (r *Record) Get(field string) interface{} {
	return r.fields[field]
}

// Set returns a copy of the record with the field set. Unknown fields are
// rejected so records can never drift from their descriptor.
func (r *Record) Set(field string, value interface{}) (*Record, error) {
	if r.desc.Field(field) == nil {
		return nil, &UnknownFieldError{Kind: r.desc.name, Field: field}
	}
	out := r.clone()
	out.fields[field] = value
	return out, nil
}

// Association returns the association slot for name.
func (r *Record) Association(name string) Assoc {
	return r.assocs[name]
}

// PrimaryKeyValue returns the value of the primary key field, or nil when
// the kind has no primary key or the value is unset.
func (r *Record) PrimaryKeyValue() interface{} {
	pk := r.desc.PrimaryKey()
	if pk == nil {
		return nil
	}
	return r.fields[pk.Name]
}

// ToRow dumps the record's fields to their storage representation.
func (r *Record) ToRow() (Row, error) {
	row := make(Row, len(r.fields))
	for _, f := range r.desc.fields {
		v, err := Dump(f.Type, r.fields[f.Name])
		if err != nil {
			return nil, fmt.Errorf("dump %s.%s: %w", r.desc.name, f.Name, err)
		}
		row[f.Name] = v
	}
	return row, nil
}

func (r *Record) clone() *Record {
	out := &Record{
		desc:   r.desc,
		fields: make(map[string]interface{}, len(r.fields)),
		assocs: make(map[string]Assoc, len(r.assocs)),
	}
	for k, v := range r.fields {
		out.fields[k] = v
	}
	for k, v := range r.assocs {
		out.assocs[k] = v
	}
	return out
}

// WithAssociation returns a copy of the record with the named association
// slot replaced. An empty records slice marks the slot LoadedEmpty.
func (r *Record) WithAssociation(name string, records []*Record) (*Record, error) {
	if r.desc.Association(name) == nil {
		return nil, &UnknownFieldError{Kind: r.desc.name, Field: name}
	}
	out := r.clone()
	if len(records) == 0 {
		out.assocs[name] = Assoc{State: AssocLoadedEmpty}
	} else {
		out.assocs[name] = Assoc{State: AssocLoaded, Records: records}
	}
	return out, nil
}

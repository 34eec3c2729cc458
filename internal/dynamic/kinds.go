package dynamic

import (
	"sort"

	"github.com/mesh-intelligence/engn/pkg/types"
)

// Kind is the resolved value shape of a field-type node.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindDatetime
	KindPath
	KindURL
	KindUUID
	KindPositiveInt
	KindQuantity
	KindEnum
	KindRecord
	KindList
	KindMap
)

// FieldType is one node of a resolved type tree. Exactly the members
// implied by Kind are set: Dim for quantities, Enum for enumerations,
// Record for nested record types, Elem for lists, Key and Value for maps.
// RefTarget is set on any node that was declared as ref[Type.Field]; the
// node's Kind is then the kind of the target field's own type.
type FieldType struct {
	Kind      Kind
	Dim       Dimension
	Enum      *types.Enumeration
	Record    string
	Elem      *FieldType
	Key       *FieldType
	Value     *FieldType
	RefTarget string // "Type.Field", empty for non-ref nodes
}

// Field is one resolved, validated property of a descriptor.
type Field struct {
	Name       string
	Type       *FieldType
	Required   bool
	Default    any
	Unique     bool
	NoRefCheck bool
	AnyOf      []*FieldType // alternative type trees, tried after Type

	checks []checkFunc
}

// RefTarget returns the "Type.Field" target when the field was declared as
// a direct ref, and false otherwise. Refs nested inside lists or maps are
// reached by walking Type.
func (f *Field) RefTarget() (string, bool) {
	if f.Type != nil && f.Type.RefTarget != "" {
		return f.Type.RefTarget, true
	}
	return "", false
}

// Descriptor validates untyped mappings claiming to be one record type. It
// preserves the declaration order of fields; serialization relies on it.
type Descriptor struct {
	Name   string
	Fields []Field

	index map[string]int
}

// Field returns the named field and whether it is declared.
func (d *Descriptor) Field(name string) (*Field, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.Fields[i], true
}

// Registry holds the generated descriptors and enumerations of one
// Generate run. Lookups by name; no global state.
type Registry struct {
	descriptors map[string]*Descriptor
	enums       map[string]types.Enumeration
}

// Descriptor returns the descriptor generated for the named TypeDef.
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Enum returns the named enumeration.
func (r *Registry) Enum(name string) (types.Enumeration, bool) {
	e, ok := r.enums[name]
	return e, ok
}

// Has reports whether name is a generated record type.
func (r *Registry) Has(name string) bool {
	_, ok := r.descriptors[name]
	return ok
}

// Names returns every generated record type name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

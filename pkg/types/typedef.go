package types

import (
	"encoding/json"
	"fmt"
)

// TypeDef declares a record type: a unique name and an ordered list of
// properties. Extends is descriptive metadata only; the engine performs no
// field inheritance or merging.
type TypeDef struct {
	EngnType    string     `json:"engn_type"`
	Name        string     `json:"name"`
	Extends     string     `json:"extends,omitempty"`
	Description string     `json:"description,omitempty"`
	Properties  []Property `json:"properties"`
}

// NewTypeDef constructs a TypeDef with the discriminator set.
func NewTypeDef(name string, properties ...Property) TypeDef {
	return TypeDef{EngnType: KindTypeDef, Name: name, Properties: properties}
}

func (TypeDef) item() {}

// Kind returns the fixed discriminator "type_def".
func (TypeDef) Kind() string { return KindTypeDef }

// Validate checks the name, every property's grammar, and property-name
// uniqueness within the type.
func (t TypeDef) Validate() error {
	if t.Name == "" {
		return &FieldValidationError{Type: "TypeDef", Field: "name", Code: CodeMissing, Message: "Field required"}
	}
	seen := make(map[string]bool, len(t.Properties))
	for _, p := range t.Properties {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("type '%s': %w", t.Name, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("type '%s': duplicate property '%s'", t.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Property returns the named property and whether it is declared.
func (t TypeDef) Property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// MarshalJSON forces the discriminator and an empty (not null) property
// list regardless of how the value was constructed.
func (t TypeDef) MarshalJSON() ([]byte, error) {
	type alias TypeDef
	a := alias(t)
	a.EngnType = KindTypeDef
	if a.Properties == nil {
		a.Properties = []Property{}
	}
	return json.Marshal(a)
}

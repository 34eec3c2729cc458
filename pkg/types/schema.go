package types

import "fmt"

// Schema aggregates the definitions of one run. Its one global invariant:
// every type referenced by any property of any type — structurally or via a
// ref — must resolve to a primitive, an enum in Enums, or a type in Types.
type Schema struct {
	Types   []TypeDef     `json:"types"`
	Enums   []Enumeration `json:"enums"`
	Modules []Module      `json:"modules,omitempty"`
}

// NewSchema validates all definitions, registers them in reg, and enforces
// the reference invariant. The caller owns reg; passing a fresh registry
// gives an independent run, passing a shared one accumulates across calls.
func NewSchema(reg *Registry, typeDefs []TypeDef, enums []Enumeration, modules []Module) (*Schema, error) {
	for _, e := range enums {
		if err := reg.AddEnum(e); err != nil {
			return nil, err
		}
	}
	for _, t := range typeDefs {
		if err := reg.AddType(t); err != nil {
			return nil, err
		}
	}
	for _, m := range modules {
		if err := reg.AddModule(m); err != nil {
			return nil, err
		}
	}

	s := &Schema{Types: typeDefs, Enums: enums, Modules: modules}
	if err := s.validateReferences(reg); err != nil {
		return nil, err
	}
	return s, nil
}

// validateReferences walks every property of every type and resolves each
// referenced name. Ref targets additionally must name a declared property
// of a TypeDef; enumerations cannot be the target of a ref.
func (s *Schema) validateReferences(reg *Registry) error {
	for _, t := range s.Types {
		for _, p := range t.Properties {
			for _, name := range p.ReferencedTypes() {
				if !reg.HasDefinition(name) {
					return &UnresolvedReferenceError{TypeName: t.Name, Property: p.Name, Unknown: name}
				}
			}
			if target, ok := p.RefTarget(); ok {
				if err := validateRefTarget(reg, t.Name, p, target); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateRefTarget(reg *Registry, owner string, p Property, target string) error {
	spec := p.Spec()
	if _, isEnum := reg.Enum(spec.Name); isEnum {
		return fmt.Errorf("property '%s.%s': ref target '%s' is an enumeration, not a type",
			owner, p.Name, spec.Name)
	}
	targetDef, ok := reg.Type(spec.Name)
	if !ok {
		return &UnresolvedReferenceError{TypeName: owner, Property: p.Name, Unknown: spec.Name}
	}
	if _, ok := targetDef.Property(spec.RefProp); !ok {
		return fmt.Errorf("property '%s.%s': Property '%s' not found in type '%s'",
			owner, p.Name, spec.RefProp, spec.Name)
	}
	return nil
}

package types

import "sort"

// Registry holds the named definitions for one schema-construction run.
// It is an explicit object passed into schema construction, generation and
// checking; the engine keeps no process-wide state. TypeDefs and
// Enumerations share one namespace; Modules have their own. Registration
// never silently replaces an existing entry.
//
// The registry is not synchronized; guard it externally if shared.
type Registry struct {
	types   map[string]TypeDef
	enums   map[string]Enumeration
	modules map[string]Module
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset clears every registered definition, making the registry reusable
// between independent runs.
func (r *Registry) Reset() {
	r.types = make(map[string]TypeDef)
	r.enums = make(map[string]Enumeration)
	r.modules = make(map[string]Module)
}

// AddType registers a TypeDef. Returns DuplicateDefinitionError when the
// name is already taken by a TypeDef or an Enumeration.
func (r *Registry) AddType(t TypeDef) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if r.HasDefinition(t.Name) {
		return &DuplicateDefinitionError{Name: t.Name, Kind: KindTypeDef}
	}
	r.types[t.Name] = t
	return nil
}

// AddEnum registers an Enumeration. Returns DuplicateDefinitionError when
// the name is already taken by a TypeDef or an Enumeration.
func (r *Registry) AddEnum(e Enumeration) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if r.HasDefinition(e.Name) {
		return &DuplicateDefinitionError{Name: e.Name, Kind: KindEnum}
	}
	r.enums[e.Name] = e
	return nil
}

// AddModule registers a Module in the module namespace.
func (r *Registry) AddModule(m Module) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, ok := r.modules[m.Name]; ok {
		return &DuplicateDefinitionError{Name: m.Name, Kind: KindModule}
	}
	r.modules[m.Name] = m
	return nil
}

// Type returns the named TypeDef.
func (r *Registry) Type(name string) (TypeDef, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Enum returns the named Enumeration.
func (r *Registry) Enum(name string) (Enumeration, bool) {
	e, ok := r.enums[name]
	return e, ok
}

// Module returns the named Module.
func (r *Registry) Module(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// HasDefinition reports whether name is taken by a TypeDef or an
// Enumeration.
func (r *Registry) HasDefinition(name string) bool {
	if _, ok := r.types[name]; ok {
		return true
	}
	_, ok := r.enums[name]
	return ok
}

// Types returns every registered TypeDef sorted by name.
func (r *Registry) Types() []TypeDef {
	out := make([]TypeDef, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Enums returns every registered Enumeration sorted by name.
func (r *Registry) Enums() []Enumeration {
	out := make([]Enumeration, 0, len(r.enums))
	for _, e := range r.enums {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Modules returns every registered Module sorted by name.
func (r *Registry) Modules() []Module {
	out := make([]Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

package types

// Adapter validates untyped objects against the runtime types generated
// from a set of TypeDef and Enumeration definitions.
type Adapter interface {
	// Has reports whether a runtime type exists for the given tag.
	Has(tag string) bool

	// Names returns the generated type names in sorted order.
	Names() []string

	// Validate checks one decoded object against the named type and returns
	// the normalized instance. Unknown fields, missing required fields and
	// constraint violations are rejected.
	Validate(typeName string, fields map[string]any) (*Instance, error)

	// MarshalInstance serializes an instance with engn_type first and every
	// declared field in order; unset optional fields serialize as null.
	MarshalInstance(inst *Instance) ([]byte, error)
}

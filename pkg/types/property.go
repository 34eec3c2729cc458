package types

import (
	"fmt"
	"time"
)

// Presence values for Property.
const (
	PresenceRequired = "required"
	PresenceOptional = "optional"
)

// Property defines one field of a record type: a name, a type string under
// the grammar, and an optional set of constraint attributes grouped by the
// value shape they target. Unset constraints are nil or zero and compile to
// no check at all.
type Property struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Presence    string `json:"presence,omitempty"`
	Default     any    `json:"default,omitempty"`
	Unique      bool   `json:"unique,omitempty"`

	// List constraints.
	ListMin *int `json:"list_min,omitempty"`
	ListMax *int `json:"list_max,omitempty"`

	// Numeric constraints. The bounds take a number, or a quantity string
	// such as "5 m" when the property type is a physical quantity.
	GT          any      `json:"gt,omitempty"`
	GE          any      `json:"ge,omitempty"`
	LT          any      `json:"lt,omitempty"`
	LE          any      `json:"le,omitempty"`
	Exclude     []any    `json:"exclude,omitempty"`
	MultipleOf  *float64 `json:"multiple_of,omitempty"`
	WholeNumber bool     `json:"whole_number,omitempty"`

	// String constraints.
	StrMin   *int   `json:"str_min,omitempty"`
	StrMax   *int   `json:"str_max,omitempty"`
	StrRegex string `json:"str_regex,omitempty"`

	// Temporal constraints.
	Before *time.Time `json:"before,omitempty"`
	After  *time.Time `json:"after,omitempty"`

	// Filesystem path constraints.
	PathExists bool     `json:"path_exists,omitempty"`
	IsDir      bool     `json:"is_dir,omitempty"`
	IsFile     bool     `json:"is_file,omitempty"`
	FileExt    []string `json:"file_ext,omitempty"`

	// URL constraints.
	URLBase      string   `json:"url_base,omitempty"`
	URLProtocols []string `json:"url_protocols,omitempty"`
	URLReachable bool     `json:"url_reachable,omitempty"`

	// Union constraint: alternative type strings; a value is accepted when
	// it validates against at least one of them.
	AnyOf []string `json:"any_of,omitempty"`

	// Reference constraint: skip the whole-collection integrity pass for
	// this field.
	NoRefCheck bool `json:"no_ref_check,omitempty"`
}

// Validate checks the property's structural invariants: a non-empty name, a
// type string that parses under the grammar, a recognized presence value,
// and any_of alternatives that themselves parse. It does not check whether
// referenced type names exist; that is the Schema's job.
func (p Property) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("property: %w", ErrEmptyName)
	}
	if _, err := ParseTypeString(p.Type); err != nil {
		return fmt.Errorf("property '%s': %w", p.Name, err)
	}
	switch p.Presence {
	case "", PresenceRequired, PresenceOptional:
	default:
		return fmt.Errorf("property '%s': presence must be %q or %q, got %q",
			p.Name, PresenceRequired, PresenceOptional, p.Presence)
	}
	for _, alt := range p.AnyOf {
		if _, err := ParseTypeString(alt); err != nil {
			return fmt.Errorf("property '%s': any_of: %w", p.Name, err)
		}
	}
	return nil
}

// IsRequired reports whether the property must be present on every record.
// An unset presence means optional.
func (p Property) IsRequired() bool {
	return p.Presence == PresenceRequired
}

// Spec returns the parsed type string. Call Validate first; Spec panics on
// a malformed type string only if validation was skipped.
func (p Property) Spec() *TypeSpec {
	spec, err := ParseTypeString(p.Type)
	if err != nil {
		panic(fmt.Sprintf("types: Spec on unvalidated property %q: %v", p.Name, err))
	}
	return spec
}

// RefTarget returns the "Type.Field" target when the property type is a
// ref, and false otherwise.
func (p Property) RefTarget() (string, bool) {
	spec, err := ParseTypeString(p.Type)
	if err != nil || spec.Kind != SpecRef {
		return "", false
	}
	return spec.Name + "." + spec.RefProp, true
}

// ReferencedTypes returns every custom type name mentioned by the
// property's type string or any of its any_of alternatives.
func (p Property) ReferencedTypes() []string {
	return p.collect(func(s *TypeSpec) []string { return s.ReferencedTypes() })
}

// StructuralDependencies returns the custom type names the property
// structurally depends on; refs contribute nothing.
func (p Property) StructuralDependencies() []string {
	return p.collect(func(s *TypeSpec) []string { return s.StructuralDependencies() })
}

func (p Property) collect(extract func(*TypeSpec) []string) []string {
	var names []string
	if spec, err := ParseTypeString(p.Type); err == nil {
		names = append(names, extract(spec)...)
	}
	for _, alt := range p.AnyOf {
		if spec, err := ParseTypeString(alt); err == nil {
			names = append(names, extract(spec)...)
		}
	}
	return dedupe(names)
}

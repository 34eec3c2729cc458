package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Discriminator values carried in the engn_type field by meta-entities.
// Data instances carry the name of the TypeDef that describes them instead.
const (
	KindTypeDef = "type_def"
	KindEnum    = "enum"
	KindModule  = "module"
	KindImport  = "import"
)

// Item is anything that can occupy one line of a collection file: one of
// the four meta-entities or a data Instance. The set is closed; the storage
// engine switches exhaustively over it.
type Item interface {
	item()
}

// Definition is the closed union of meta-entities that declare schema:
// TypeDef, Enumeration, Module and Import.
type Definition interface {
	Item

	// Kind returns the entity's fixed engn_type discriminator.
	Kind() string

	// Validate checks the entity's structural invariants.
	Validate() error
}

// IsMetaKind reports whether tag is one of the fixed meta-entity
// discriminators.
func IsMetaKind(tag string) bool {
	switch tag {
	case KindTypeDef, KindEnum, KindModule, KindImport:
		return true
	}
	return false
}

// ProbeTag extracts the engn_type discriminator from one line without
// validating the rest of the object.
func ProbeTag(raw []byte) (string, error) {
	var probe struct {
		EngnType string `json:"engn_type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", err
	}
	return probe.EngnType, nil
}

// ParseDefinition parses one line as a meta-entity and validates it.
// A line whose tag is not a meta-entity discriminator is rejected with the
// tag named in the error; callers treat such lines as candidate data.
func ParseDefinition(raw []byte) (Definition, error) {
	tag, err := ProbeTag(raw)
	if err != nil {
		return nil, err
	}

	var def Definition
	switch tag {
	case KindTypeDef:
		var td TypeDef
		if err := decodeStrict(raw, &td); err != nil {
			return nil, err
		}
		def = td
	case KindEnum:
		var e Enumeration
		if err := decodeStrict(raw, &e); err != nil {
			return nil, err
		}
		def = e
	case KindModule:
		var m Module
		if err := decodeStrict(raw, &m); err != nil {
			return nil, err
		}
		def = m
	case KindImport:
		var imp Import
		if err := decodeStrict(raw, &imp); err != nil {
			return nil, err
		}
		def = imp
	default:
		return nil, fmt.Errorf("Input tag '%s' found using 'engn_type' does not match any of the expected tags", tag)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// decodeStrict decodes one JSON object rejecting unknown fields and
// preserving numbers losslessly.
func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// DefinitionsEqual reports whether two definitions are interchangeable:
// same kind and identical canonical JSON form. Used by the storage engine
// to dedupe a definition that arrives both at construction time and on a
// file line.
func DefinitionsEqual(a, b Definition) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// DefinitionName returns the registered name of a definition; imports are
// anonymous and return "".
func DefinitionName(d Definition) string {
	switch v := d.(type) {
	case TypeDef:
		return v.Name
	case Enumeration:
		return v.Name
	case Module:
		return v.Name
	case Import:
		return ""
	}
	return ""
}

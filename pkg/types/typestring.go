package types

import (
	"fmt"
	"strings"
)

// TypeSpecKind classifies a parsed type-string node.
type TypeSpecKind int

const (
	SpecPrimitive TypeSpecKind = iota
	SpecList
	SpecMap
	SpecRef
	SpecNamed
)

// TypeSpec is the parsed form of a property type string. List nodes fill
// Elem, map nodes fill Key and Value, ref nodes fill Name (target type) and
// RefProp (target property), primitive and named nodes fill Name only.
type TypeSpec struct {
	Kind    TypeSpecKind
	Name    string
	RefProp string
	Elem    *TypeSpec
	Key     *TypeSpec
	Value   *TypeSpec
}

// PrimitiveKind classifies the value shape of a registered primitive name.
type PrimitiveKind int

const (
	PrimitiveString PrimitiveKind = iota
	PrimitiveInt
	PrimitiveFloat
	PrimitiveBool
	PrimitiveDatetime
	PrimitivePath
	PrimitiveURL
	PrimitiveUUID
	PrimitivePositiveInt
	PrimitiveQuantity
)

// primitiveTypes is the fixed table of registered primitive names.
var primitiveTypes = map[string]PrimitiveKind{
	"str":         PrimitiveString,
	"int":         PrimitiveInt,
	"float":       PrimitiveFloat,
	"bool":        PrimitiveBool,
	"datetime":    PrimitiveDatetime,
	"path":        PrimitivePath,
	"url":         PrimitiveURL,
	"uuid":        PrimitiveUUID,
	"PositiveInt": PrimitivePositiveInt,
	"length":      PrimitiveQuantity,
	"mass":        PrimitiveQuantity,
	"time":        PrimitiveQuantity,
	"temperature": PrimitiveQuantity,
	"current":     PrimitiveQuantity,
}

// IsPrimitive reports whether name is a registered primitive type name.
func IsPrimitive(name string) bool {
	_, ok := primitiveTypes[name]
	return ok
}

// PrimitiveKindOf returns the kind of a registered primitive name.
func PrimitiveKindOf(name string) (PrimitiveKind, bool) {
	k, ok := primitiveTypes[name]
	return k, ok
}

// ParseTypeString parses a type string under the grammar:
//
//	type      := primitive | list_t | map_t | ref_t | IDENT
//	list_t    := "list[" type "]"
//	map_t     := "map[" type "," type "]"
//	ref_t     := "ref[" IDENT "." IDENT "]"
//
// Whitespace around tokens is ignored. Unknown bare identifiers are
// accepted optimistically as forward references to a TypeDef or an
// Enumeration; they are checked later at the Schema level. Structural
// failures return a GrammarError.
func ParseTypeString(s string) (*TypeSpec, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil, &GrammarError{TypeString: s, Reason: "type string is empty"}
	}

	switch {
	case strings.HasPrefix(t, "list[") && strings.HasSuffix(t, "]"):
		elem, err := ParseTypeString(t[len("list[") : len(t)-1])
		if err != nil {
			return nil, err
		}
		return &TypeSpec{Kind: SpecList, Elem: elem}, nil

	case strings.HasPrefix(t, "map[") && strings.HasSuffix(t, "]"):
		args := splitTopLevel(t[len("map[") : len(t)-1])
		if len(args) != 2 {
			return nil, &GrammarError{
				TypeString: s,
				Reason:     fmt.Sprintf("map must have exactly 2 arguments (key, value), got %d", len(args)),
			}
		}
		key, err := ParseTypeString(args[0])
		if err != nil {
			return nil, err
		}
		value, err := ParseTypeString(args[1])
		if err != nil {
			return nil, err
		}
		return &TypeSpec{Kind: SpecMap, Key: key, Value: value}, nil

	case strings.HasPrefix(t, "ref[") && strings.HasSuffix(t, "]"):
		inner := strings.TrimSpace(t[len("ref[") : len(t)-1])
		target, prop, ok := strings.Cut(inner, ".")
		target = strings.TrimSpace(target)
		prop = strings.TrimSpace(prop)
		if !ok || target == "" || prop == "" || strings.ContainsAny(inner, "[],") || strings.Contains(prop, ".") {
			return nil, &GrammarError{TypeString: s, Reason: "Must be in format ref[Type.property]"}
		}
		return &TypeSpec{Kind: SpecRef, Name: target, RefProp: prop}, nil
	}

	// Bare identifier: any residual bracket or comma means the string was
	// not a well-formed list/map/ref form.
	if strings.ContainsAny(t, "[],") {
		return nil, &GrammarError{TypeString: s, Reason: "unbalanced brackets"}
	}
	if IsPrimitive(t) {
		return &TypeSpec{Kind: SpecPrimitive, Name: t}, nil
	}
	return &TypeSpec{Kind: SpecNamed, Name: t}, nil
}

// splitTopLevel splits s on commas at bracket depth zero. Commas nested
// inside an inner bracketed type do not count as separators.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// ReferencedTypes returns every custom type name appearing anywhere in the
// spec, including the Type component of a ref. Used to answer "does this
// name exist somewhere in the schema".
func (ts *TypeSpec) ReferencedTypes() []string {
	var names []string
	ts.walk(func(n *TypeSpec) {
		switch n.Kind {
		case SpecNamed, SpecRef:
			names = append(names, n.Name)
		}
	})
	return dedupe(names)
}

// StructuralDependencies returns the custom type names this spec depends on
// for construction. A ref contributes nothing: it is a non-owning link, not
// a containment dependency. Map keys that are not primitives count (they
// may be enums).
func (ts *TypeSpec) StructuralDependencies() []string {
	var names []string
	ts.walk(func(n *TypeSpec) {
		if n.Kind == SpecNamed {
			names = append(names, n.Name)
		}
	})
	return dedupe(names)
}

// walk visits every node except the subtrees of ref nodes, which are leaf
// links by construction.
func (ts *TypeSpec) walk(fn func(*TypeSpec)) {
	if ts == nil {
		return
	}
	fn(ts)
	ts.Elem.walk(fn)
	ts.Key.walk(fn)
	ts.Value.walk(fn)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

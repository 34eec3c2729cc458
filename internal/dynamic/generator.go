package dynamic

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/engn/pkg/types"
)

// Generate builds a descriptor registry from unordered definitions.
// Enumerations register first; TypeDefs then resolve over a work list, a
// type deferring whenever any of its properties names a not-yet-resolved
// type. A full pass with zero progress means the remaining types can never
// resolve, either because they form a structural cycle or because a
// definition was never supplied; both cases raise one DependencyError
// naming every pending type.
func Generate(typeDefs []types.TypeDef, enums []types.Enumeration) (*Registry, error) {
	reg := &Registry{
		descriptors: make(map[string]*Descriptor, len(typeDefs)),
		enums:       make(map[string]types.Enumeration, len(enums)),
	}
	g := &generator{
		reg:      reg,
		typeDefs: make(map[string]types.TypeDef, len(typeDefs)),
	}

	for _, e := range enums {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, taken := reg.enums[e.Name]; taken {
			return nil, &types.DuplicateDefinitionError{Name: e.Name, Kind: types.KindEnum}
		}
		reg.enums[e.Name] = e
	}

	for _, td := range typeDefs {
		if err := td.Validate(); err != nil {
			return nil, err
		}
		if _, taken := g.typeDefs[td.Name]; taken {
			return nil, &types.DuplicateDefinitionError{Name: td.Name, Kind: types.KindTypeDef}
		}
		if _, taken := reg.enums[td.Name]; taken {
			return nil, &types.DuplicateDefinitionError{Name: td.Name, Kind: types.KindTypeDef}
		}
		g.typeDefs[td.Name] = td
	}

	pending := make([]types.TypeDef, len(typeDefs))
	copy(pending, typeDefs)

	for len(pending) > 0 {
		progress := false
		var retry []types.TypeDef

		for _, td := range pending {
			desc, ready, err := g.build(td)
			if err != nil {
				return nil, err
			}
			if !ready {
				retry = append(retry, td)
				continue
			}
			reg.descriptors[td.Name] = desc
			progress = true
		}

		if !progress && len(retry) > 0 {
			names := make([]string, len(retry))
			for i, td := range retry {
				names[i] = td.Name
			}
			sort.Strings(names)
			return nil, &types.DependencyError{Pending: names}
		}
		pending = retry
	}

	return reg, nil
}

type generator struct {
	reg      *Registry
	typeDefs map[string]types.TypeDef
}

// build attempts to resolve one TypeDef into a descriptor. ready=false
// defers the type to the next work-list pass; a non-nil error aborts
// generation entirely.
func (g *generator) build(td types.TypeDef) (*Descriptor, bool, error) {
	desc := &Descriptor{
		Name:   td.Name,
		Fields: make([]Field, 0, len(td.Properties)),
		index:  make(map[string]int, len(td.Properties)),
	}

	for _, p := range td.Properties {
		ft, ready, err := g.resolve(p.Spec(), map[string]bool{})
		if err != nil {
			return nil, false, err
		}
		if !ready {
			return nil, false, nil
		}

		var alts []*FieldType
		for _, altStr := range p.AnyOf {
			spec, err := types.ParseTypeString(altStr)
			if err != nil {
				return nil, false, err
			}
			alt, ready, err := g.resolve(spec, map[string]bool{})
			if err != nil {
				return nil, false, err
			}
			if !ready {
				return nil, false, nil
			}
			alts = append(alts, alt)
		}

		f := Field{
			Name:       p.Name,
			Type:       ft,
			Required:   p.IsRequired(),
			Default:    p.Default,
			Unique:     p.Unique,
			NoRefCheck: p.NoRefCheck,
			AnyOf:      alts,
		}
		checks, err := compileChecks(td.Name, p, ft)
		if err != nil {
			return nil, false, err
		}
		f.checks = checks

		if f.Default != nil {
			val, errs := g.reg.checkValue(td.Name, p.Name, &f, f.Default)
			if len(errs) > 0 {
				return nil, false, fmt.Errorf("invalid default for '%s.%s': %w", td.Name, p.Name, errs[0])
			}
			f.Default = val
		}

		desc.index[f.Name] = len(desc.Fields)
		desc.Fields = append(desc.Fields, f)
	}

	return desc, true, nil
}

// resolve turns a parsed type spec into a FieldType tree. The visiting set
// tracks "Type.Property" ref targets on the current resolution path; a
// repeat means the refs form a chain with no concrete value type at the
// bottom, which can never resolve.
func (g *generator) resolve(spec *types.TypeSpec, visiting map[string]bool) (*FieldType, bool, error) {
	switch spec.Kind {
	case types.SpecPrimitive:
		return primitiveFieldType(spec.Name), true, nil

	case types.SpecList:
		elem, ready, err := g.resolve(spec.Elem, visiting)
		if err != nil || !ready {
			return nil, ready, err
		}
		return &FieldType{Kind: KindList, Elem: elem}, true, nil

	case types.SpecMap:
		key, ready, err := g.resolve(spec.Key, visiting)
		if err != nil || !ready {
			return nil, ready, err
		}
		value, ready, err := g.resolve(spec.Value, visiting)
		if err != nil || !ready {
			return nil, ready, err
		}
		switch key.Kind {
		case KindString, KindInt, KindEnum:
		default:
			return nil, false, fmt.Errorf("map key type must be str, int, or an enumeration")
		}
		return &FieldType{Kind: KindMap, Key: key, Value: value}, true, nil

	case types.SpecRef:
		target := spec.Name + "." + spec.RefProp
		if visiting[target] {
			return nil, false, fmt.Errorf("circular reference chain through '%s'", target)
		}
		if _, isEnum := g.reg.enums[spec.Name]; isEnum {
			return nil, false, fmt.Errorf("ref target '%s' is an enumeration, not a type", spec.Name)
		}
		td, ok := g.typeDefs[spec.Name]
		if !ok {
			// Target type never supplied; the work list stalls and reports it.
			return nil, false, nil
		}
		tp, ok := td.Property(spec.RefProp)
		if !ok {
			return nil, false, fmt.Errorf("Property '%s' not found in type '%s'", spec.RefProp, spec.Name)
		}
		visiting[target] = true
		ft, ready, err := g.resolve(tp.Spec(), visiting)
		delete(visiting, target)
		if err != nil || !ready {
			return nil, ready, err
		}
		ft.RefTarget = target
		return ft, true, nil

	case types.SpecNamed:
		if e, ok := g.reg.enums[spec.Name]; ok {
			enum := e
			return &FieldType{Kind: KindEnum, Enum: &enum}, true, nil
		}
		if _, ok := g.reg.descriptors[spec.Name]; ok {
			return &FieldType{Kind: KindRecord, Record: spec.Name}, true, nil
		}
		// Present but unresolved, or missing entirely: defer either way.
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("unsupported type spec kind %d", spec.Kind)
}

func primitiveFieldType(name string) *FieldType {
	kind, _ := types.PrimitiveKindOf(name)
	switch kind {
	case types.PrimitiveString:
		return &FieldType{Kind: KindString}
	case types.PrimitiveInt:
		return &FieldType{Kind: KindInt}
	case types.PrimitiveFloat:
		return &FieldType{Kind: KindFloat}
	case types.PrimitiveBool:
		return &FieldType{Kind: KindBool}
	case types.PrimitiveDatetime:
		return &FieldType{Kind: KindDatetime}
	case types.PrimitivePath:
		return &FieldType{Kind: KindPath}
	case types.PrimitiveURL:
		return &FieldType{Kind: KindURL}
	case types.PrimitiveUUID:
		return &FieldType{Kind: KindUUID}
	case types.PrimitivePositiveInt:
		return &FieldType{Kind: KindPositiveInt}
	case types.PrimitiveQuantity:
		return &FieldType{Kind: KindQuantity, Dim: Dimension(name)}
	}
	return &FieldType{Kind: KindString}
}

package dynamic

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/mesh-intelligence/engn/pkg/types"
)

// Validate checks an untyped mapping against the named descriptor and
// materializes it as an Instance. Every field violation is collected, not
// just the first; the returned error combines them all.
func (r *Registry) Validate(typeName string, fields map[string]any) (*types.Instance, error) {
	desc, ok := r.descriptors[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown type '%s'", typeName)
	}
	return r.validate(desc, typeName, "", fields)
}

// validate runs one descriptor over one mapping. typeName stays the
// top-level type across nested records so error locations read
// "Type.field.subfield"; prefix carries the nesting path.
func (r *Registry) validate(desc *Descriptor, typeName, prefix string, fields map[string]any) (*types.Instance, error) {
	var errs error
	inst := &types.Instance{
		Type:   desc.Name,
		Fields: make(map[string]any, len(desc.Fields)),
	}

	extras := make([]string, 0)
	for key := range fields {
		if prefix == "" && key == "engn_type" {
			continue
		}
		if _, declared := desc.index[key]; !declared {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		errs = multierr.Append(errs, &types.FieldValidationError{
			Type: typeName, Field: prefix + key,
			Code: types.CodeExtraForbidden, Message: "Extra inputs are not permitted",
			Value: fields[key],
		})
	}

	// The discriminator is immutable: when present it must spell the type.
	if prefix == "" {
		if tag, present := fields["engn_type"]; present {
			if s, isString := tag.(string); !isString || s != desc.Name {
				errs = multierr.Append(errs, &types.FieldValidationError{
					Type: typeName, Field: "engn_type",
					Code: types.CodeEnum, Message: fmt.Sprintf("Input should be '%s'", desc.Name),
					Value: tag,
				})
			}
		}
	}

	for i := range desc.Fields {
		f := &desc.Fields[i]
		path := prefix + f.Name
		raw, present := fields[f.Name]

		if !present || raw == nil {
			switch {
			case f.Default != nil:
				inst.Fields[f.Name] = f.Default
			case f.Required:
				errs = multierr.Append(errs, &types.FieldValidationError{
					Type: typeName, Field: path,
					Code: types.CodeMissing, Message: "Field required",
				})
			default:
				inst.Fields[f.Name] = nil
			}
			continue
		}

		val, ferrs := r.checkValue(typeName, path, f, raw)
		if len(ferrs) > 0 {
			errs = multierr.Append(errs, multierr.Combine(ferrs...))
			continue
		}
		inst.Fields[f.Name] = val
	}

	if errs != nil {
		return nil, errs
	}
	return inst, nil
}

// checkValue runs the kind check, the any_of fallback, and the compiled
// constraints for one field value.
func (r *Registry) checkValue(typeName, path string, f *Field, v any) (any, []error) {
	val, errs := r.checkKind(typeName, path, f.Type, v)
	if len(errs) == 0 {
		for _, chk := range f.checks {
			if viol := chk(v); viol != nil {
				errs = append(errs, &types.FieldValidationError{
					Type: typeName, Field: path,
					Code: viol.code, Message: viol.message, Value: v,
				})
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return val, nil
	}

	for _, alt := range f.AnyOf {
		if altVal, altErrs := r.checkKind(typeName, path, alt, v); len(altErrs) == 0 {
			return altVal, nil
		}
	}
	if len(f.AnyOf) > 0 {
		return nil, []error{&types.FieldValidationError{
			Type: typeName, Field: path,
			Code: types.CodeAnyOf, Message: "Value does not match any allowed type", Value: v,
		}}
	}
	return nil, errs
}

// checkKind validates a value's shape against one FieldType node, recursing
// into lists, maps and nested records. Scalars are returned as decoded
// (strings stay strings, numbers stay json.Number) so serialization
// round-trips losslessly.
func (r *Registry) checkKind(typeName, path string, ft *FieldType, v any) (any, []error) {
	fail := func(code, msg string) (any, []error) {
		return nil, []error{&types.FieldValidationError{
			Type: typeName, Field: path, Code: code, Message: msg, Value: v,
		}}
	}

	switch ft.Kind {
	case KindString, KindPath:
		if _, ok := v.(string); !ok {
			return fail(types.CodeStringType, "Input should be a valid string")
		}
		return v, nil

	case KindInt:
		if _, ok := asInteger(v); !ok {
			return fail(types.CodeIntType, "Input should be a valid integer")
		}
		return v, nil

	case KindFloat:
		if _, ok := asNumber(v); !ok {
			return fail(types.CodeFloatType, "Input should be a valid number")
		}
		return v, nil

	case KindBool:
		if _, ok := v.(bool); !ok {
			return fail(types.CodeBoolType, "Input should be a valid boolean")
		}
		return v, nil

	case KindPositiveInt:
		n, ok := asInteger(v)
		if !ok {
			return fail(types.CodeIntType, "Input should be a valid integer")
		}
		if n <= 0 {
			return fail(types.CodeGreaterThan, "Input should be greater than 0")
		}
		return v, nil

	case KindDatetime:
		s, ok := v.(string)
		if !ok {
			return fail(types.CodeDatetimeType, "Input should be a valid datetime")
		}
		if _, ok := parseDatetime(s); !ok {
			return fail(types.CodeDatetimeType, "Input should be a valid datetime")
		}
		return v, nil

	case KindUUID:
		s, ok := v.(string)
		if !ok {
			return fail(types.CodeUUIDType, "Input should be a valid UUID")
		}
		if _, err := uuid.Parse(s); err != nil {
			return fail(types.CodeUUIDType, "Input should be a valid UUID")
		}
		return v, nil

	case KindURL:
		s, ok := v.(string)
		if !ok {
			return fail(types.CodeStringType, "Input should be a valid string")
		}
		if u, err := url.Parse(s); err != nil || u.Scheme == "" {
			return fail(types.CodeURLFormat, "Invalid URL format (missing protocol)")
		}
		return v, nil

	case KindQuantity:
		s, ok := v.(string)
		if !ok {
			return fail(types.CodeStringType, "Input should be a valid string")
		}
		if _, err := ParseQuantityAs(s, ft.Dim); err != nil {
			code := types.CodeQuantityInvalid
			if strings.HasPrefix(err.Error(), "Physical type mismatch") {
				code = types.CodeQuantityDim
			}
			return fail(code, err.Error())
		}
		return v, nil

	case KindEnum:
		s, ok := v.(string)
		if !ok || !ft.Enum.Contains(s) {
			return fail(types.CodeEnum, enumMessage(ft.Enum.Values))
		}
		return v, nil

	case KindList:
		items, ok := v.([]any)
		if !ok {
			return fail(types.CodeListType, "Input should be a valid list")
		}
		out := make([]any, len(items))
		var errs []error
		for i, item := range items {
			val, ferrs := r.checkKind(typeName, fmt.Sprintf("%s.%d", path, i), ft.Elem, item)
			if len(ferrs) > 0 {
				errs = append(errs, ferrs...)
				continue
			}
			out[i] = val
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil

	case KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			return fail(types.CodeDictType, "Input should be a valid dictionary")
		}
		out := make(map[string]any, len(m))
		var errs []error
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			keyPath := path + "." + k
			if kerrs := checkMapKey(typeName, keyPath, ft.Key, k); len(kerrs) > 0 {
				errs = append(errs, kerrs...)
				continue
			}
			val, ferrs := r.checkKind(typeName, keyPath, ft.Value, m[k])
			if len(ferrs) > 0 {
				errs = append(errs, ferrs...)
				continue
			}
			out[k] = val
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil

	case KindRecord:
		m, ok := v.(map[string]any)
		if !ok {
			return fail(types.CodeDictType, "Input should be a valid dictionary")
		}
		nested, found := r.descriptors[ft.Record]
		if !found {
			return fail(types.CodeDictType, fmt.Sprintf("unknown record type '%s'", ft.Record))
		}
		sub, err := r.validate(nested, typeName, path+".", m)
		if err != nil {
			return nil, multierr.Errors(err)
		}
		return sub, nil
	}

	return fail(types.CodeDictType, fmt.Sprintf("unsupported kind %d", ft.Kind))
}

// checkMapKey validates a JSON object key against the declared map key
// type. Keys are always strings on the wire; int keys must parse as
// integers and enum keys must be members.
func checkMapKey(typeName, path string, kt *FieldType, key string) []error {
	fail := func(code, msg string) []error {
		return []error{&types.FieldValidationError{
			Type: typeName, Field: path, Code: code, Message: msg, Value: key,
		}}
	}
	switch kt.Kind {
	case KindInt:
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			return fail(types.CodeIntType, "Input should be a valid integer")
		}
	case KindEnum:
		if !kt.Enum.Contains(key) {
			return fail(types.CodeEnum, enumMessage(kt.Enum.Values))
		}
	}
	return nil
}

// enumMessage renders the allowed values the way validation libraries
// conventionally do: "Input should be 'a', 'b' or 'c'".
func enumMessage(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	switch len(quoted) {
	case 0:
		return "Input should be one of the allowed values"
	case 1:
		return "Input should be " + quoted[0]
	}
	return "Input should be " + strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

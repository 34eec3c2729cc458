package dynamic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/engn/pkg/types"
)

// MarshalInstance serializes an instance as one JSON object: the engn_type
// discriminator first, then every declared field in declaration order,
// unset optionals as null. The inverse of Validate.
func (r *Registry) MarshalInstance(inst *types.Instance) ([]byte, error) {
	desc, ok := r.descriptors[inst.Type]
	if !ok {
		return nil, fmt.Errorf("unknown type '%s'", inst.Type)
	}
	return r.marshalRecord(desc, inst, true)
}

func (r *Registry) marshalRecord(desc *Descriptor, inst *types.Instance, topLevel bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if topLevel {
		buf.WriteString(`"engn_type":`)
		tag, err := json.Marshal(inst.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(tag)
	}

	for i := range desc.Fields {
		f := &desc.Fields[i]
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.marshalValue(inst.Fields[f.Name])
		if err != nil {
			return nil, fmt.Errorf("field '%s.%s': %w", inst.Type, f.Name, err)
		}
		buf.Write(val)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalValue renders one field value. Nested records marshal through
// their own descriptor (without a discriminator); scalars keep their
// decoded form, so json.Number round-trips digit for digit.
func (r *Registry) marshalValue(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return []byte("null"), nil

	case *types.Instance:
		desc, ok := r.descriptors[x.Type]
		if !ok {
			return nil, fmt.Errorf("unknown record type '%s'", x.Type)
		}
		return r.marshalRecord(desc, x, false)

	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := r.marshalValue(item)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := r.marshalValue(x[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	return json.Marshal(v)
}

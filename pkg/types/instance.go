package types

// Instance is one materialized data record: the name of the TypeDef that
// describes it plus its validated field values. Field values hold JSON
// scalars (string, bool, json.Number), nil for unset optionals, []any,
// map[string]any, or a nested *Instance for record-typed fields.
//
// Instances are produced by descriptor validation; constructing one by hand
// bypasses every check and is only safe in tests.
type Instance struct {
	Type   string
	Fields map[string]any
}

func (*Instance) item() {}

// Get returns the named field value and whether it is set to a non-nil
// value.
func (i *Instance) Get(field string) (any, bool) {
	v, ok := i.Fields[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

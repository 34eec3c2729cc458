package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeStringPrimitives(t *testing.T) {
	for name := range primitiveTypes {
		t.Run(name, func(t *testing.T) {
			spec, err := ParseTypeString(name)
			require.NoError(t, err)
			assert.Equal(t, SpecPrimitive, spec.Kind)
			assert.Equal(t, name, spec.Name)
		})
	}
}

func TestParseTypeStringComposites(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, spec *TypeSpec)
	}{
		{
			name:  "list of primitive",
			input: "list[str]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecList, spec.Kind)
				assert.Equal(t, SpecPrimitive, spec.Elem.Kind)
				assert.Equal(t, "str", spec.Elem.Name)
			},
		},
		{
			name:  "list of named type",
			input: "list[Task]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecList, spec.Kind)
				assert.Equal(t, SpecNamed, spec.Elem.Kind)
				assert.Equal(t, "Task", spec.Elem.Name)
			},
		},
		{
			name:  "map of primitives",
			input: "map[str,int]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecMap, spec.Kind)
				assert.Equal(t, "str", spec.Key.Name)
				assert.Equal(t, "int", spec.Value.Name)
			},
		},
		{
			name:  "map with spaces",
			input: "map[str, float]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecMap, spec.Kind)
				assert.Equal(t, "float", spec.Value.Name)
			},
		},
		{
			name:  "nested map value",
			input: "map[str,list[int]]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecMap, spec.Kind)
				assert.Equal(t, SpecList, spec.Value.Kind)
				assert.Equal(t, "int", spec.Value.Elem.Name)
			},
		},
		{
			name:  "deeply nested list",
			input: "list[map[str,list[Task]]]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecList, spec.Kind)
				assert.Equal(t, SpecMap, spec.Elem.Kind)
				assert.Equal(t, SpecList, spec.Elem.Value.Kind)
				assert.Equal(t, "Task", spec.Elem.Value.Elem.Name)
			},
		},
		{
			name:  "reference",
			input: "ref[User.id]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecRef, spec.Kind)
				assert.Equal(t, "User", spec.Name)
				assert.Equal(t, "id", spec.RefProp)
			},
		},
		{
			name:  "list of references",
			input: "list[ref[Task.id]]",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecList, spec.Kind)
				assert.Equal(t, SpecRef, spec.Elem.Kind)
				assert.Equal(t, "Task", spec.Elem.Name)
				assert.Equal(t, "id", spec.Elem.RefProp)
			},
		},
		{
			name:  "unknown bare identifier is a named type",
			input: "Widget",
			check: func(t *testing.T, spec *TypeSpec) {
				assert.Equal(t, SpecNamed, spec.Kind)
				assert.Equal(t, "Widget", spec.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseTypeString(tt.input)
			require.NoError(t, err)
			tt.check(t, spec)
		})
	}
}

func TestParseTypeStringErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{
			name:   "empty string",
			input:  "",
			reason: "type string is empty",
		},
		{
			name:   "whitespace only",
			input:  "   ",
			reason: "type string is empty",
		},
		{
			name:   "map with one argument",
			input:  "map[str]",
			reason: "map must have exactly 2 arguments (key, value), got 1",
		},
		{
			name:   "map with three arguments",
			input:  "map[str,int,float]",
			reason: "map must have exactly 2 arguments (key, value), got 3",
		},
		{
			name:   "ref without property",
			input:  "ref[User]",
			reason: "Must be in format ref[Type.property]",
		},
		{
			name:   "ref with empty property",
			input:  "ref[User.]",
			reason: "Must be in format ref[Type.property]",
		},
		{
			name:   "ref with empty type",
			input:  "ref[.id]",
			reason: "Must be in format ref[Type.property]",
		},
		{
			name:   "ref with nested dots",
			input:  "ref[User.address.city]",
			reason: "Must be in format ref[Type.property]",
		},
		{
			name:   "unclosed list",
			input:  "list[str",
			reason: "unbalanced brackets",
		},
		{
			name:   "stray comma",
			input:  "str,int",
			reason: "unbalanced brackets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTypeString(tt.input)
			require.Error(t, err)
			var gerr *GrammarError
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.reason, gerr.Reason)
		})
	}
}

func TestReferencedTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "primitive has none", input: "str", want: nil},
		{name: "named type", input: "Task", want: []string{"Task"}},
		{name: "ref names its target", input: "ref[User.id]", want: []string{"User"}},
		{name: "nested named types", input: "map[Status,list[Task]]", want: []string{"Status", "Task"}},
		{name: "duplicates collapse", input: "map[Task,Task]", want: []string{"Task"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseTypeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.ReferencedTypes())
		})
	}
}

func TestStructuralDependencies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "primitive has none", input: "int", want: nil},
		{name: "named type counts", input: "Task", want: []string{"Task"}},
		{name: "ref does not count", input: "ref[User.id]", want: nil},
		{name: "list of refs does not count", input: "list[ref[User.id]]", want: nil},
		{name: "enum map key counts", input: "map[Status,int]", want: []string{"Status"}},
		{name: "mixed ref and named", input: "map[str,Task]", want: []string{"Task"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseTypeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.StructuralDependencies())
		})
	}
}

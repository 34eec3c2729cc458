package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyValidate(t *testing.T) {
	tests := []struct {
		name    string
		prop    Property
		wantErr bool
	}{
		{
			name: "minimal valid",
			prop: Property{Name: "title", Type: "str"},
		},
		{
			name: "required composite",
			prop: Property{Name: "tags", Type: "list[str]", Presence: PresenceRequired},
		},
		{
			name: "optional ref",
			prop: Property{Name: "owner", Type: "ref[User.id]", Presence: PresenceOptional},
		},
		{
			name:    "empty name",
			prop:    Property{Type: "str"},
			wantErr: true,
		},
		{
			name:    "bad type string",
			prop:    Property{Name: "bad", Type: "map[str]"},
			wantErr: true,
		},
		{
			name:    "bad presence",
			prop:    Property{Name: "p", Type: "str", Presence: "mandatory"},
			wantErr: true,
		},
		{
			name: "any_of alternatives parse",
			prop: Property{Name: "id", Type: "int", AnyOf: []string{"int", "uuid"}},
		},
		{
			name:    "any_of with bad alternative",
			prop:    Property{Name: "id", Type: "int", AnyOf: []string{"list["}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prop.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPropertyValidateEmptyNameSentinel(t *testing.T) {
	err := Property{Type: "str"}.Validate()
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestPropertyIsRequired(t *testing.T) {
	assert.True(t, Property{Name: "a", Type: "str", Presence: PresenceRequired}.IsRequired())
	assert.False(t, Property{Name: "a", Type: "str", Presence: PresenceOptional}.IsRequired())
	assert.False(t, Property{Name: "a", Type: "str"}.IsRequired(), "unset presence means optional")
}

func TestPropertyRefTarget(t *testing.T) {
	tests := []struct {
		name       string
		typ        string
		wantTarget string
		wantOK     bool
	}{
		{name: "plain ref", typ: "ref[User.id]", wantTarget: "User.id", wantOK: true},
		{name: "primitive", typ: "str"},
		{name: "list of refs is not a direct ref", typ: "list[ref[User.id]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := Property{Name: "p", Type: tt.typ}.RefTarget()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestPropertyDependencySets(t *testing.T) {
	p := Property{
		Name:  "assignees",
		Type:  "list[ref[User.id]]",
		AnyOf: []string{"list[Team]"},
	}
	require.NoError(t, p.Validate())

	assert.ElementsMatch(t, []string{"User", "Team"}, p.ReferencedTypes())
	assert.Equal(t, []string{"Team"}, p.StructuralDependencies(),
		"refs are links, not construction dependencies")
}

package dynamic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/engn/pkg/types"
)

func userPostDefs() []types.TypeDef {
	return []types.TypeDef{
		types.NewTypeDef("User",
			types.Property{Name: "id", Type: "int"},
			types.Property{Name: "name", Type: "str"},
		),
		types.NewTypeDef("Post",
			types.Property{Name: "id", Type: "int"},
			types.Property{Name: "user_id", Type: "ref[User.id]"},
			types.Property{Name: "content", Type: "str"},
		),
	}
}

func TestGenerateResolvesRefs(t *testing.T) {
	reg, err := Generate(userPostDefs(), nil)
	require.NoError(t, err)

	require.True(t, reg.Has("User"))
	require.True(t, reg.Has("Post"))

	post, _ := reg.Descriptor("Post")
	f, ok := post.Field("user_id")
	require.True(t, ok)
	assert.Equal(t, KindInt, f.Type.Kind, "ref field takes the target property's kind")

	target, ok := f.RefTarget()
	require.True(t, ok)
	assert.Equal(t, "User.id", target)
}

func TestGeneratePermutationInvariance(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("Address", types.Property{Name: "city", Type: "str"}),
		types.NewTypeDef("Company", types.Property{Name: "hq", Type: "Address"}),
		types.NewTypeDef("Employee",
			types.Property{Name: "employer", Type: "Company"},
			types.Property{Name: "home", Type: "Address"},
		),
	}
	enums := []types.Enumeration{types.NewEnumeration("Grade", "junior", "senior")}

	orders := [][]int{
		{0, 1, 2},
		{2, 1, 0},
		{1, 2, 0},
		{2, 0, 1},
	}
	for _, order := range orders {
		permuted := make([]types.TypeDef, len(defs))
		for i, j := range order {
			permuted[i] = defs[j]
		}
		reg, err := Generate(permuted, enums)
		require.NoError(t, err, "order %v", order)
		assert.Equal(t, []string{"Address", "Company", "Employee"}, reg.Names())
	}
}

func TestGenerateStructuralCycleFails(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("A", types.Property{Name: "b", Type: "B"}),
		types.NewTypeDef("B", types.Property{Name: "a", Type: "A"}),
	}

	_, err := Generate(defs, nil)
	require.Error(t, err)

	var dep *types.DependencyError
	require.ErrorAs(t, err, &dep)
	assert.ElementsMatch(t, []string{"A", "B"}, dep.Pending, "every stuck type is named")
	assert.Contains(t, err.Error(), "Unable to resolve dependencies for types")
	assert.Contains(t, err.Error(), "Possible circular dependency or missing type definition")
}

func TestGenerateMutualRefCycleSucceeds(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("A",
			types.Property{Name: "id", Type: "int"},
			types.Property{Name: "b_id", Type: "ref[B.id]"},
		),
		types.NewTypeDef("B",
			types.Property{Name: "id", Type: "int"},
			types.Property{Name: "a_id", Type: "ref[A.id]"},
		),
	}

	reg, err := Generate(defs, nil)
	require.NoError(t, err, "refs are links, not structural dependencies")

	a, _ := reg.Descriptor("A")
	f, _ := a.Field("b_id")
	assert.Equal(t, KindInt, f.Type.Kind)
	assert.Equal(t, "B.id", f.Type.RefTarget)
}

func TestGenerateSelfReferenceFails(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("Tree", types.Property{Name: "children", Type: "list[Tree]"}),
	}

	_, err := Generate(defs, nil)
	var dep *types.DependencyError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, []string{"Tree"}, dep.Pending)
}

func TestGenerateMissingTypeFails(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("Task", types.Property{Name: "status", Type: "Status"}),
	}

	_, err := Generate(defs, nil)
	var dep *types.DependencyError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, []string{"Task"}, dep.Pending,
		"a never-supplied type presents exactly like a cycle")
}

func TestGenerateRefErrors(t *testing.T) {
	t.Run("missing target property", func(t *testing.T) {
		defs := []types.TypeDef{
			types.NewTypeDef("User", types.Property{Name: "id", Type: "int"}),
			types.NewTypeDef("BadProp", types.Property{Name: "bad", Type: "ref[User.non_existent]"}),
		}
		_, err := Generate(defs, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Property 'non_existent' not found in type 'User'")
	})

	t.Run("missing target type stalls", func(t *testing.T) {
		defs := []types.TypeDef{
			types.NewTypeDef("MissingType", types.Property{Name: "bad", Type: "ref[NonExistent.id]"}),
		}
		_, err := Generate(defs, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unable to resolve dependencies")
	})

	t.Run("enumeration as target", func(t *testing.T) {
		defs := []types.TypeDef{
			types.NewTypeDef("Task", types.Property{Name: "status", Type: "ref[Status.values]"}),
		}
		enums := []types.Enumeration{types.NewEnumeration("Status", "open")}
		_, err := Generate(defs, enums)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ref target 'Status' is an enumeration, not a type")
	})

	t.Run("circular ref chain", func(t *testing.T) {
		defs := []types.TypeDef{
			types.NewTypeDef("A", types.Property{Name: "x", Type: "ref[B.y]"}),
			types.NewTypeDef("B", types.Property{Name: "y", Type: "ref[A.x]"}),
		}
		_, err := Generate(defs, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circular reference chain")
	})
}

func TestGenerateEnumField(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("Task", types.Property{Name: "status", Type: "Status"}),
	}
	enums := []types.Enumeration{types.NewEnumeration("Status", "open", "closed")}

	reg, err := Generate(defs, enums)
	require.NoError(t, err)

	task, _ := reg.Descriptor("Task")
	f, _ := task.Field("status")
	require.Equal(t, KindEnum, f.Type.Kind)
	assert.True(t, f.Type.Enum.Contains("open"))
}

func TestGenerateDuplicateDefinitions(t *testing.T) {
	t.Run("duplicate typedef", func(t *testing.T) {
		_, err := Generate([]types.TypeDef{types.NewTypeDef("A"), types.NewTypeDef("A")}, nil)
		var dup *types.DuplicateDefinitionError
		if !errors.As(err, &dup) {
			t.Fatalf("expected DuplicateDefinitionError, got %v", err)
		}
	})

	t.Run("typedef shadows enum", func(t *testing.T) {
		_, err := Generate(
			[]types.TypeDef{types.NewTypeDef("Status")},
			[]types.Enumeration{types.NewEnumeration("Status", "open")},
		)
		var dup *types.DuplicateDefinitionError
		if !errors.As(err, &dup) {
			t.Fatalf("expected DuplicateDefinitionError, got %v", err)
		}
	})
}

func TestGenerateMapKeyRestriction(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("Bad", types.Property{Name: "m", Type: "map[float,str]"}),
	}
	_, err := Generate(defs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map key type must be str, int, or an enumeration")
}

func TestGenerateInvalidDefault(t *testing.T) {
	defs := []types.TypeDef{
		types.NewTypeDef("Task", types.Property{Name: "count", Type: "int", Default: "not an int"}),
	}
	_, err := Generate(defs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid default for 'Task.count'")
}

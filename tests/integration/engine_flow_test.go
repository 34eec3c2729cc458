// Engine integration tests exercising the public facade end to end:
// collections that round-trip byte for byte, adapters validating and
// normalizing data, and definitions-only collections.
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/engn/pkg/engine"
	"github.com/mesh-intelligence/engn/pkg/types"
)

func writeLinesFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngineCollectionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeLinesFile(t, dir, "measures.jsonl",
		`{"engn_type":"type_def","name":"Measure","properties":[`+
			`{"name":"label","type":"str","presence":"required"},`+
			`{"name":"effort","type":"float"}]}`,
		`{"engn_type":"Measure","label":"alpha","effort":0.30}`,
		`{"engn_type":"Measure","label":"beta","effort":null}`,
	)

	coll, err := engine.NewCollection(src, nil, zerolog.Nop())
	require.NoError(t, err)
	items, err := coll.Read()
	require.NoError(t, err)
	require.Len(t, items, 3)

	dst := filepath.Join(dir, "copy.jsonl")
	out, err := engine.NewCollection(dst, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, out.Write(items))

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got), "write(read()) must be byte-stable")
}

func TestEngineCollectionAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.jsonl")
	defs := []types.Definition{
		types.TypeDef{Name: "Note", Properties: []types.Property{
			{Name: "text", Type: "str", Presence: types.PresenceRequired},
		}},
	}

	coll, err := engine.NewCollection(path, defs, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, coll.Append(&types.Instance{
		Type:   "Note",
		Fields: map[string]any{"text": "first"},
	}))
	require.NoError(t, coll.Append(&types.Instance{
		Type:   "Note",
		Fields: map[string]any{"text": "second"},
	}))

	items, err := coll.Read()
	require.NoError(t, err)
	require.Len(t, items, 2)
	first, ok := items[0].(*types.Instance)
	require.True(t, ok)
	assert.Equal(t, "first", first.Fields["text"])
}

func TestEngineAdapterNormalization(t *testing.T) {
	adapter, err := engine.NewAdapter(
		[]types.TypeDef{{Name: "Task", Properties: []types.Property{
			{Name: "title", Type: "str", Presence: types.PresenceRequired},
			{Name: "state", Type: "Status", Default: "open"},
			{Name: "tags", Type: "list[str]"},
		}}},
		[]types.Enumeration{{Name: "Status", Values: []string{"open", "done"}}},
	)
	require.NoError(t, err)

	require.True(t, adapter.Has("Task"))
	assert.Equal(t, []string{"Task"}, adapter.Names())

	inst, err := adapter.Validate("Task", map[string]any{
		"title": "write docs",
		"tags":  []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "open", inst.Fields["state"], "default must fill the unset field")

	raw, err := adapter.MarshalInstance(inst)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Task", decoded["engn_type"])

	_, err = adapter.Validate("Task", map[string]any{"title": "x", "state": "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Task.state")
}

func TestEngineDefinitionsCollection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.jsonl")

	coll := engine.NewDefinitionsCollection(path, zerolog.Nop())
	require.NoError(t, coll.Write([]types.Item{
		types.Enumeration{Name: "Status", Values: []string{"open", "done"}},
		types.Module{Name: "core", Files: []string{"defs.jsonl"}},
	}))

	items, err := coll.Read()
	require.NoError(t, err)
	require.Len(t, items, 2)
	_, ok := items[0].(types.Enumeration)
	assert.True(t, ok)

	// Data lines have no place in a definitions-only collection.
	_, err = coll.ValidateLine([]byte(`{"engn_type":"Task","title":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Input tag 'Task'")
}

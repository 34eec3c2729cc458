package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/engn/internal/dynamic"
	"github.com/mesh-intelligence/engn/pkg/types"
)

// Storage is one JSONL collection file. In dynamic mode (New) the file may
// mix definitions and data lines in any order: Read collects the
// definitions first, merges them with the construction-time ones, generates
// descriptors and only then validates the data lines. In definitions-only
// mode (NewDefinitions) every line must be a meta-entity.
//
// A Storage never caches file contents; every Read sees the file as it is.
type Storage struct {
	path     string
	defs     []types.Definition
	defsOnly bool
	adapter  *dynamic.Registry
	logger   zerolog.Logger
}

// New opens a dynamic-mode storage over path. The definitions seed the
// adapter; the file may add more. Invalid or conflicting definitions fail
// here rather than on first use.
func New(path string, defs []types.Definition, logger zerolog.Logger) (*Storage, error) {
	merged, err := mergeDefinitions(nil, defs)
	if err != nil {
		return nil, err
	}
	adapter, err := buildAdapter(merged)
	if err != nil {
		return nil, err
	}
	return &Storage{path: path, defs: merged, adapter: adapter, logger: logger}, nil
}

// NewDefinitions opens a definitions-only storage over path: every line
// must hold a TypeDef, Enumeration, Module or Import.
func NewDefinitions(path string, logger zerolog.Logger) *Storage {
	return &Storage{path: path, defsOnly: true, logger: logger}
}

// Read returns the whole collection: definitions first, then data
// instances, each in file order. A missing file is an empty collection.
// Data lines validate against the union of construction-time and in-file
// definitions, so a definition may appear after data that uses it. The
// final pass checks reference integrity and uniqueness across the whole
// collection.
func (s *Storage) Read() ([]types.Item, error) {
	lines, err := ReadLines(s.path)
	if err != nil {
		return nil, err
	}

	if s.defsOnly {
		items := make([]types.Item, 0, len(lines))
		for _, ln := range lines {
			def, err := types.ParseDefinition(ln.Raw)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d: %w", s.path, ln.Number, err)
			}
			items = append(items, def)
		}
		return items, nil
	}

	var fileDefs []types.Definition
	items := make([]types.Item, 0, len(lines))
	var dataLines []Line
	for _, ln := range lines {
		tag, err := types.ProbeTag(ln.Raw)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", s.path, ln.Number, err)
		}
		if types.IsMetaKind(tag) {
			def, err := types.ParseDefinition(ln.Raw)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d: %w", s.path, ln.Number, err)
			}
			fileDefs = append(fileDefs, def)
			items = append(items, def)
			continue
		}
		dataLines = append(dataLines, ln)
	}

	merged, err := mergeDefinitions(s.defs, fileDefs)
	if err != nil {
		return nil, err
	}
	adapter, err := buildAdapter(merged)
	if err != nil {
		return nil, err
	}

	instances := make([]*types.Instance, 0, len(dataLines))
	for _, ln := range dataLines {
		inst, err := ValidateData(adapter, ln.Raw)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", s.path, ln.Number, err)
		}
		instances = append(instances, inst)
	}

	if err := checkIntegrity(adapter, instances); err != nil {
		return nil, err
	}

	for _, inst := range instances {
		items = append(items, inst)
	}
	s.logger.Debug().
		Str("path", s.path).
		Int("definitions", len(items)-len(instances)).
		Int("instances", len(instances)).
		Msg("collection read")
	return items, nil
}

// Write atomically replaces the file with the given items, one JSON line
// each. Instances serialize through descriptors generated from the
// construction-time definitions plus any definitions among the items, so
// writing back the result of Read needs no extra setup. An empty item list
// produces a zero-byte file.
func (s *Storage) Write(items []types.Item) error {
	records, err := s.marshalItems(items)
	if err != nil {
		return err
	}
	if err := writeLines(s.path, records); err != nil {
		return err
	}
	s.logger.Debug().Str("path", s.path).Int("items", len(records)).Msg("collection written")
	return nil
}

// Append serializes one item and appends it to the file. Instances must be
// of a type known to the construction-time definitions; Append never
// re-reads the file.
func (s *Storage) Append(item types.Item) error {
	records, err := s.marshalItems([]types.Item{item})
	if err != nil {
		return err
	}
	return appendLine(s.path, records[0])
}

// ValidateLine parses and validates one raw line against the current
// adapter: meta-entity lines parse as definitions, anything else must be a
// data line of a known construction-time type. It never touches the file.
func (s *Storage) ValidateLine(raw []byte) (types.Item, error) {
	tag, err := types.ProbeTag(raw)
	if err != nil {
		return nil, err
	}
	if types.IsMetaKind(tag) {
		return types.ParseDefinition(raw)
	}
	if s.defsOnly {
		return nil, unknownTagError(tag)
	}
	return ValidateData(s.adapter, raw)
}

// ReadLines returns the raw non-blank lines of the file with their 1-based
// numbers, for callers that produce their own per-line diagnostics.
func (s *Storage) ReadLines() ([]Line, error) {
	return ReadLines(s.path)
}

// Path returns the collection file path.
func (s *Storage) Path() string {
	return s.path
}

// ValidateData parses and validates one raw data line against generated
// descriptors. The line's tag must name a generated type.
func ValidateData(adapter *dynamic.Registry, raw []byte) (*types.Instance, error) {
	tag, err := types.ProbeTag(raw)
	if err != nil {
		return nil, err
	}
	if !adapter.Has(tag) {
		return nil, unknownTagError(tag)
	}
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	return adapter.Validate(tag, fields)
}

func unknownTagError(tag string) error {
	return fmt.Errorf("Input tag '%s' found using 'engn_type' does not match any of the expected tags", tag)
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Storage) marshalItems(items []types.Item) ([][]byte, error) {
	adapter := s.adapter
	if !s.defsOnly {
		var extra []types.Definition
		for _, it := range items {
			if d, ok := it.(types.Definition); ok {
				extra = append(extra, d)
			}
		}
		if len(extra) > 0 {
			merged, err := mergeDefinitions(s.defs, extra)
			if err != nil {
				return nil, err
			}
			adapter, err = buildAdapter(merged)
			if err != nil {
				return nil, err
			}
		}
	}

	records := make([][]byte, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case types.Definition:
			if err := v.Validate(); err != nil {
				return nil, err
			}
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			records = append(records, b)
		case *types.Instance:
			if s.defsOnly {
				return nil, fmt.Errorf("definitions-only storage cannot hold data instances")
			}
			b, err := adapter.MarshalInstance(v)
			if err != nil {
				return nil, err
			}
			records = append(records, b)
		default:
			return nil, fmt.Errorf("unsupported item type %T", it)
		}
	}
	return records, nil
}

// mergeDefinitions unions two definition lists. Same-name definitions that
// are deep-equal collapse to one; same-name definitions that differ are a
// DuplicateDefinitionError. TypeDefs and Enumerations share a namespace,
// Modules have their own, Imports are anonymous and pass through.
func mergeDefinitions(base, extra []types.Definition) ([]types.Definition, error) {
	merged := make([]types.Definition, 0, len(base)+len(extra))
	byName := make(map[string]types.Definition)

	add := func(d types.Definition) error {
		name := types.DefinitionName(d)
		if name == "" {
			merged = append(merged, d)
			return nil
		}
		key := "def:" + name
		if d.Kind() == types.KindModule {
			key = "module:" + name
		}
		if prev, ok := byName[key]; ok {
			if types.DefinitionsEqual(prev, d) {
				return nil
			}
			return &types.DuplicateDefinitionError{Name: name, Kind: d.Kind()}
		}
		byName[key] = d
		merged = append(merged, d)
		return nil
	}

	for _, d := range base {
		if err := add(d); err != nil {
			return nil, err
		}
	}
	for _, d := range extra {
		if err := add(d); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// buildAdapter generates descriptors from the TypeDefs and Enumerations in
// defs; Modules and Imports do not participate in generation.
func buildAdapter(defs []types.Definition) (*dynamic.Registry, error) {
	var typeDefs []types.TypeDef
	var enums []types.Enumeration
	for _, d := range defs {
		switch v := d.(type) {
		case types.TypeDef:
			typeDefs = append(typeDefs, v)
		case types.Enumeration:
			enums = append(enums, v)
		}
	}
	return dynamic.Generate(typeDefs, enums)
}

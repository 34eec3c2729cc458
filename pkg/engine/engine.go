// Package engine provides the public API for the engn data engine.
// It exposes factory functions for collections and schema adapters while
// keeping implementation details internal.
package engine

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/engn/internal/dynamic"
	"github.com/mesh-intelligence/engn/internal/storage"
	"github.com/mesh-intelligence/engn/pkg/types"
)

// NewCollection opens a dynamic-mode collection at path. The given
// definitions seed the schema; definitions found in the file itself merge
// with them on Read.
//
// Example:
//
//	coll, err := engine.NewCollection("pm/tasks.jsonl", defs, logger)
//	if err != nil {
//	    return err
//	}
//	items, err := coll.Read()
func NewCollection(path string, defs []types.Definition, logger zerolog.Logger) (types.Collection, error) {
	return storage.New(path, defs, logger)
}

// NewDefinitionsCollection opens a definitions-only collection at path.
// Every line must be a meta-entity; data lines are rejected.
func NewDefinitionsCollection(path string, logger zerolog.Logger) types.Collection {
	return storage.NewDefinitions(path, logger)
}

// NewAdapter generates runtime types for the given definitions. Referenced
// names must resolve within the definition set; structural cycles are
// rejected.
func NewAdapter(typeDefs []types.TypeDef, enums []types.Enumeration) (types.Adapter, error) {
	return dynamic.Generate(typeDefs, enums)
}

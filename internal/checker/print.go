package checker

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mesh-intelligence/engn/internal/storage"
	"github.com/mesh-intelligence/engn/pkg/types"
)

// Print renders definitions and data from the given files plus everything
// they import, one block per processed file. Definitions are collected
// across all files first so data in one file may use types defined in
// another. A file that fails to read renders an inline error and the
// remaining files still print.
func (c *Checker) Print(w io.Writer, files []string) {
	walk := c.walk(files, false)
	kept, _ := dedupeDefs(walk.defs)

	var defs []types.Definition
	propOrder := make(map[string][]string)
	for _, ld := range kept {
		if _, ok := ld.def.(types.Import); ok {
			continue
		}
		defs = append(defs, ld.def)
		if td, ok := ld.def.(types.TypeDef); ok {
			names := make([]string, len(td.Properties))
			for i, p := range td.Properties {
				names[i] = p.Name
			}
			propOrder[td.Name] = names
		}
	}

	for _, file := range walk.files {
		fmt.Fprintf(w, "\n%s %s %s\n", strings.Repeat("=", 20), file, strings.Repeat("=", 20))

		s, err := storage.New(file, defs, c.logger)
		var items []types.Item
		if err == nil {
			items, err = s.Read()
		}
		if err != nil {
			fmt.Fprintf(w, "ERROR: %s - %v\n", file, err)
			continue
		}
		if len(items) == 0 {
			fmt.Fprintln(w, "No data items found.")
			continue
		}
		for _, item := range items {
			printItem(w, item, propOrder)
		}
	}
}

func printItem(w io.Writer, item types.Item, propOrder map[string][]string) {
	switch v := item.(type) {
	case types.Enumeration:
		fmt.Fprintf(w, "\n[Enum] %s\n", v.Name)
		if v.Description != "" {
			fmt.Fprintf(w, "  Description: %s\n", v.Description)
		}
		fmt.Fprintf(w, "  Values: %s\n", strings.Join(v.Values, ", "))

	case types.TypeDef:
		fmt.Fprintf(w, "\n[Type] %s\n", v.Name)
		if v.Extends != "" {
			fmt.Fprintf(w, "  Extends: %s\n", v.Extends)
		}
		if v.Description != "" {
			fmt.Fprintf(w, "  Description: %s\n", v.Description)
		}
		fmt.Fprintln(w, "  Properties:")
		for _, p := range v.Properties {
			presence := types.PresenceOptional
			if p.IsRequired() {
				presence = types.PresenceRequired
			}
			if p.Default != nil {
				fmt.Fprintf(w, "    - %s: %s (%s, default: %s)\n", p.Name, p.Type, presence, renderValue(p.Default))
			} else {
				fmt.Fprintf(w, "    - %s: %s (%s)\n", p.Name, p.Type, presence)
			}
		}

	case types.Module:
		fmt.Fprintf(w, "\n[Module] %s\n", v.Name)
		if v.Description != "" {
			fmt.Fprintf(w, "  Description: %s\n", v.Description)
		}
		fmt.Fprintf(w, "  Files: %s\n", strings.Join(v.Files, ", "))

	case types.Import:
		fmt.Fprintf(w, "\n[Import]\n")
		if len(v.Files) > 0 {
			fmt.Fprintf(w, "  Files: %s\n", strings.Join(v.Files, ", "))
		}
		if len(v.Modules) > 0 {
			fmt.Fprintf(w, "  Modules: %s\n", strings.Join(v.Modules, ", "))
		}

	case *types.Instance:
		fmt.Fprintf(w, "\n[%s]\n", v.Type)
		names := propOrder[v.Type]
		if names == nil {
			names = sortedKeys(v.Fields)
		}
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, renderValue(v.Fields[name]))
		}
	}
}

// renderValue formats a field value for display. Nested structures render
// with sorted keys so output is stable.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case *types.Instance:
		return renderFields(t.Fields)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = renderValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return renderFields(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func renderFields(fields map[string]any) string {
	keys := sortedKeys(fields)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + renderValue(fields[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

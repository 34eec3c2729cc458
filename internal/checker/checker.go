// Package checker walks collection files, resolves imports, and validates
// every definition and data line, aggregating findings across files. It is
// the only component that collects errors instead of failing on the first
// one; the engine proper always returns the first error it hits.
package checker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/engn/internal/dynamic"
	"github.com/mesh-intelligence/engn/internal/storage"
	"github.com/mesh-intelligence/engn/pkg/types"
)

// ErrTargetNotFound reports an explicit target that does not exist on disk.
var ErrTargetNotFound = errors.New("target not found")

// Diagnostic is one finding: a file, a 1-based line, and a message. Line 0
// marks whole-file problems, which sort before any line of that file.
type Diagnostic struct {
	File    string
	Line    int
	Message string
}

// Result is the outcome of one Check run.
type Result struct {
	Files       []string     // processed files in processing order, imports included
	Diagnostics []Diagnostic // sorted by file, then line
}

// OK reports whether the run found nothing wrong.
func (r *Result) OK() bool { return len(r.Diagnostics) == 0 }

// WriteReport renders the result in the fixed report shape.
func (r *Result) WriteReport(w io.Writer) {
	if r.OK() {
		fmt.Fprintln(w, "All checks passed!")
		return
	}
	fmt.Fprintf(w, "Found %d errors.\n", len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.Line == 0 {
			fmt.Fprintf(w, "%s:  ERROR - %s\n", d.File, d.Message)
		} else {
			fmt.Fprintf(w, "%s at line %d:  ERROR - %s\n", d.File, d.Line, d.Message)
		}
	}
}

// Checker checks and prints collections under one working directory.
type Checker struct {
	workDir  string
	cfg      types.Config
	registry *types.Registry
	logger   zerolog.Logger
}

// New builds a Checker. The registry supplies named modules for import
// resolution and receives the modules defined by walked files.
func New(workDir string, cfg types.Config, registry *types.Registry, logger zerolog.Logger) *Checker {
	return &Checker{workDir: workDir, cfg: cfg, registry: registry, logger: logger}
}

// Discover resolves a target into the initial file list. An explicit target
// must exist; a file target counts only with the .jsonl extension; a
// directory is walked recursively. An empty target scans the configured
// data paths under the working directory, skipping paths that do not exist.
func (c *Checker) Discover(target string) ([]string, error) {
	if target != "" {
		info, err := os.Stat(target)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("'%s': %w", target, ErrTargetNotFound)
			}
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) == ".jsonl" {
				return []string{target}, nil
			}
			return nil, nil
		}
		return globJSONL(target)
	}

	var files []string
	for _, p := range c.cfg.DataPaths {
		dir := filepath.Join(c.workDir, p)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		found, err := globJSONL(dir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func globJSONL(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Check validates the given files plus everything they import: definitions
// are collected across all files first, every pending data line is then
// validated against the full generated schema, and two closing passes
// verify referenced type names and the absence of structural cycles.
func (c *Checker) Check(files []string) *Result {
	w := c.walk(files, true)
	res := &Result{Files: w.files}
	diags := w.diags

	defs, dupDiags := dedupeDefs(w.defs)
	diags = append(diags, dupDiags...)

	adapter, genDiag := generateAdapter(defs)
	if genDiag != nil {
		diags = append(diags, *genDiag)
	}
	if adapter != nil {
		for _, pl := range w.pending {
			if _, err := storage.ValidateData(adapter, pl.raw); err != nil {
				diags = append(diags, Diagnostic{File: pl.file, Line: pl.line, Message: err.Error()})
			}
		}
	}

	diags = append(diags, referencedTypesPass(defs)...)
	if d := cyclePass(defs); d != nil {
		diags = append(diags, *d)
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		return diags[i].Line < diags[j].Line
	})
	res.Diagnostics = diags
	c.logger.Debug().
		Int("files", len(res.Files)).
		Int("diagnostics", len(diags)).
		Msg("check complete")
	return res
}

type locatedDef struct {
	file string
	line int
	def  types.Definition
}

type pendingLine struct {
	file string
	line int
	raw  []byte
}

type walkResult struct {
	files   []string
	defs    []locatedDef
	pending []pendingLine
	diags   []Diagnostic
}

// walk processes the file queue in FIFO order, following imports. Already
// processed files are skipped, which terminates circular imports without a
// finding. With record false (the printer's collection pass) problems are
// dropped instead of collected.
func (c *Checker) walk(initial []string, record bool) *walkResult {
	w := &walkResult{}
	queue := append([]string(nil), initial...)
	processed := make(map[string]bool)

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]

		key := file
		if abs, err := filepath.Abs(file); err == nil {
			key = abs
		}
		if processed[key] {
			continue
		}
		processed[key] = true
		w.files = append(w.files, file)

		lines, err := storage.ReadLines(file)
		if err != nil {
			if record {
				w.diags = append(w.diags, Diagnostic{File: file,
					Message: fmt.Sprintf("Failed to open/read file: %v", err)})
			}
			continue
		}
		for _, ln := range lines {
			tag, err := types.ProbeTag(ln.Raw)
			if err != nil {
				if record {
					w.diags = append(w.diags, Diagnostic{File: file, Line: ln.Number, Message: err.Error()})
				}
				continue
			}
			if !types.IsMetaKind(tag) {
				w.pending = append(w.pending, pendingLine{file: file, line: ln.Number, raw: ln.Raw})
				continue
			}
			def, err := types.ParseDefinition(ln.Raw)
			if err != nil {
				if record {
					w.diags = append(w.diags, Diagnostic{File: file, Line: ln.Number, Message: err.Error()})
				}
				continue
			}
			w.defs = append(w.defs, locatedDef{file: file, line: ln.Number, def: def})

			switch v := def.(type) {
			case types.Module:
				c.registerModule(v, file, ln.Number, record, w)
			case types.Import:
				queue = append(queue, c.resolveImport(v, file, ln.Number, record, w)...)
			}
		}
	}
	return w
}

// registerModule makes a walked module definition available to later import
// lines. Re-registering the identical module is a no-op; a conflicting one
// is a finding.
func (c *Checker) registerModule(m types.Module, file string, line int, record bool, w *walkResult) {
	if existing, ok := c.registry.Module(m.Name); ok {
		if !types.DefinitionsEqual(existing, m) && record {
			err := &types.DuplicateDefinitionError{Name: m.Name, Kind: types.KindModule}
			w.diags = append(w.diags, Diagnostic{File: file, Line: line, Message: err.Error()})
		}
		return
	}
	if err := c.registry.AddModule(m); err != nil && record {
		w.diags = append(w.diags, Diagnostic{File: file, Line: line, Message: err.Error()})
	}
}

// resolveImport expands one import line into the files it pulls in. File
// paths resolve relative to the importing file's directory; module names
// resolve through the registry. Missing files and unknown modules are
// findings, not fatal.
func (c *Checker) resolveImport(imp types.Import, file string, line int, record bool, w *walkResult) []string {
	names := append([]string(nil), imp.Files...)
	for _, modName := range imp.Modules {
		mod, ok := c.registry.Module(modName)
		if !ok {
			if record {
				w.diags = append(w.diags, Diagnostic{File: file, Line: line,
					Message: "Module not found: " + modName})
			}
			continue
		}
		names = append(names, mod.Files...)
	}

	var enqueue []string
	for _, name := range names {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(file), path)
		}
		if _, err := os.Stat(path); err != nil {
			if record {
				w.diags = append(w.diags, Diagnostic{File: file, Line: line,
					Message: "Imported file not found: " + name})
			}
			continue
		}
		enqueue = append(enqueue, path)
	}
	return enqueue
}

// dedupeDefs collapses identical same-name definitions (a definition pulled
// in both directly and through an import) and records a finding for
// conflicting ones, keeping the first.
func dedupeDefs(defs []locatedDef) ([]locatedDef, []Diagnostic) {
	kept := make([]locatedDef, 0, len(defs))
	var diags []Diagnostic
	byKey := make(map[string]types.Definition)

	for _, ld := range defs {
		name := types.DefinitionName(ld.def)
		if name == "" {
			kept = append(kept, ld)
			continue
		}
		key := "def:" + name
		if ld.def.Kind() == types.KindModule {
			key = "module:" + name
		}
		if prev, ok := byKey[key]; ok {
			if !types.DefinitionsEqual(prev, ld.def) {
				err := &types.DuplicateDefinitionError{Name: name, Kind: ld.def.Kind()}
				diags = append(diags, Diagnostic{File: ld.file, Line: ld.line, Message: err.Error()})
			}
			continue
		}
		byKey[key] = ld.def
		kept = append(kept, ld)
	}
	return kept, diags
}

// generateAdapter builds descriptors from the collected definitions. A
// dependency stall produces no finding of its own: the referenced-type and
// cycle passes report the cause with a file and line attached. Any other
// generation failure becomes one finding attributed to the definition whose
// name appears in the message.
func generateAdapter(defs []locatedDef) (*dynamic.Registry, *Diagnostic) {
	var typeDefs []types.TypeDef
	var enums []types.Enumeration
	for _, ld := range defs {
		switch v := ld.def.(type) {
		case types.TypeDef:
			typeDefs = append(typeDefs, v)
		case types.Enumeration:
			enums = append(enums, v)
		}
	}

	adapter, err := dynamic.Generate(typeDefs, enums)
	if err == nil {
		return adapter, nil
	}
	var depErr *types.DependencyError
	if errors.As(err, &depErr) {
		return nil, nil
	}
	file, line := attribute(defs, err.Error())
	return nil, &Diagnostic{File: file, Line: line, Message: err.Error()}
}

func attribute(defs []locatedDef, msg string) (string, int) {
	for _, ld := range defs {
		name := types.DefinitionName(ld.def)
		if name == "" {
			continue
		}
		if strings.Contains(msg, "'"+name+".") || strings.Contains(msg, "'"+name+"'") {
			return ld.file, ld.line
		}
	}
	if len(defs) > 0 {
		return defs[0].file, defs[0].line
	}
	return "", 0
}

// referencedTypesPass verifies that every type name mentioned by a property
// is defined somewhere in the walked files.
func referencedTypesPass(defs []locatedDef) []Diagnostic {
	defined := make(map[string]bool)
	for _, ld := range defs {
		switch ld.def.Kind() {
		case types.KindTypeDef, types.KindEnum:
			defined[types.DefinitionName(ld.def)] = true
		}
	}

	var diags []Diagnostic
	for _, ld := range defs {
		td, ok := ld.def.(types.TypeDef)
		if !ok {
			continue
		}
		for _, p := range td.Properties {
			for _, ref := range p.ReferencedTypes() {
				if defined[ref] {
					continue
				}
				err := &types.UnresolvedReferenceError{TypeName: td.Name, Property: p.Name, Unknown: ref}
				diags = append(diags, Diagnostic{File: ld.file, Line: ld.line, Message: err.Error()})
			}
		}
	}
	return diags
}

// cyclePass runs a DFS over the structural-dependency graph between
// TypeDefs (enums cannot participate in cycles) and reports the first cycle
// found at the location of its first member. One finding is enough; a
// single cycle would otherwise be reported once per member.
func cyclePass(defs []locatedDef) *Diagnostic {
	tdNames := make(map[string]bool)
	var order []string
	loc := make(map[string]locatedDef)
	byName := make(map[string]types.TypeDef)
	for _, ld := range defs {
		td, ok := ld.def.(types.TypeDef)
		if !ok || tdNames[td.Name] {
			continue
		}
		tdNames[td.Name] = true
		order = append(order, td.Name)
		loc[td.Name] = ld
		byName[td.Name] = td
	}

	graph := make(map[string][]string, len(order))
	for _, name := range order {
		seen := make(map[string]bool)
		var deps []string
		for _, p := range byName[name].Properties {
			for _, dep := range p.StructuralDependencies() {
				if tdNames[dep] && !seen[dep] {
					seen[dep] = true
					deps = append(deps, dep)
				}
			}
		}
		sort.Strings(deps)
		graph[name] = deps
	}

	visited := make(map[string]bool)
	var find func(node string, path []string) []string
	find = func(node string, path []string) []string {
		for i, on := range path {
			if on == node {
				return append(append([]string(nil), path[i:]...), node)
			}
		}
		if visited[node] {
			return nil
		}
		visited[node] = true
		path = append(path, node)
		for _, dep := range graph[node] {
			if cycle := find(dep, path); cycle != nil {
				return cycle
			}
		}
		return nil
	}

	for _, name := range order {
		if visited[name] {
			continue
		}
		cycle := find(name, nil)
		if cycle == nil {
			continue
		}
		ld := loc[cycle[0]]
		return &Diagnostic{File: ld.file, Line: ld.line,
			Message: "Circular dependency detected: " + strings.Join(cycle, " -> ")}
	}
	return nil
}

package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/engn/internal/dynamic"
	"github.com/mesh-intelligence/engn/pkg/types"
)

// checkIntegrity runs the passes that need the whole collection in hand:
// reference integrity first, then field uniqueness. Per-line validation has
// already succeeded for every instance by the time this runs.
func checkIntegrity(reg *dynamic.Registry, instances []*types.Instance) error {
	if err := checkReferences(reg, instances); err != nil {
		return err
	}
	return checkUnique(reg, instances)
}

// checkReferences verifies that every ref[] value names an existing target
// value somewhere in the collection. Order does not matter: a reference may
// precede the record it points at. Fields marked no_ref_check are skipped
// both as sources and when collecting targets.
func checkReferences(reg *dynamic.Registry, instances []*types.Instance) error {
	targets := neededTargets(reg)
	if len(targets) == 0 {
		return nil
	}
	c := &refContext{reg: reg, index: buildTargetIndex(targets, instances)}

	for _, inst := range instances {
		desc, ok := reg.Descriptor(inst.Type)
		if !ok {
			continue
		}
		if err := c.checkInstance(desc, inst, inst.Type, ""); err != nil {
			return err
		}
	}
	return nil
}

type refContext struct {
	reg *dynamic.Registry
	// index maps "Type.Field" to the canonical keys of every value that
	// field holds across the collection.
	index map[string]map[string]bool
}

func (c *refContext) checkInstance(desc *dynamic.Descriptor, inst *types.Instance, srcType, prefix string) error {
	for i := range desc.Fields {
		f := &desc.Fields[i]
		if f.NoRefCheck {
			continue
		}
		v, set := inst.Get(f.Name)
		if !set {
			continue
		}
		tree := matchingTree(f, v)
		if tree == nil {
			continue
		}
		if err := c.walk(tree, v, srcType, prefix+f.Name); err != nil {
			return err
		}
	}
	return nil
}

// walk descends a value alongside its type tree. A node with a RefTarget is
// a leaf: the value must be a member of the target's value set, and the
// target's own subtree is not re-walked since target values were already
// validated in place.
func (c *refContext) walk(ft *dynamic.FieldType, v any, srcType, path string) error {
	if ft == nil || v == nil {
		return nil
	}
	if ft.RefTarget != "" {
		if !c.index[ft.RefTarget][dynamic.CanonicalKey(v)] {
			return &types.ReferenceIntegrityError{
				SourceType:  srcType,
				SourceField: path,
				Value:       v,
				Target:      ft.RefTarget,
			}
		}
		return nil
	}

	switch ft.Kind {
	case dynamic.KindList:
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		for _, item := range items {
			if err := c.walk(ft.Elem, item, srcType, path); err != nil {
				return err
			}
		}

	case dynamic.KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := c.walk(ft.Value, m[k], srcType, path); err != nil {
				return err
			}
		}

	case dynamic.KindRecord:
		sub, ok := v.(*types.Instance)
		if !ok {
			return nil
		}
		desc, found := c.reg.Descriptor(sub.Type)
		if !found {
			return nil
		}
		return c.checkInstance(desc, sub, srcType, path+".")
	}
	return nil
}

// neededTargets collects every "Type.Field" named by a ref node reachable
// from a checked field, so the index only materializes value sets that will
// actually be probed.
func neededTargets(reg *dynamic.Registry) map[string]bool {
	targets := make(map[string]bool)
	for _, name := range reg.Names() {
		desc, _ := reg.Descriptor(name)
		for i := range desc.Fields {
			f := &desc.Fields[i]
			if f.NoRefCheck {
				continue
			}
			collectTargets(f.Type, targets)
			for _, alt := range f.AnyOf {
				collectTargets(alt, targets)
			}
		}
	}
	return targets
}

func collectTargets(ft *dynamic.FieldType, into map[string]bool) {
	if ft == nil {
		return
	}
	if ft.RefTarget != "" {
		into[ft.RefTarget] = true
		return
	}
	collectTargets(ft.Elem, into)
	collectTargets(ft.Key, into)
	collectTargets(ft.Value, into)
}

// buildTargetIndex gathers the canonical keys held by each needed target
// field across the collection. Unset and null fields contribute nothing.
func buildTargetIndex(targets map[string]bool, instances []*types.Instance) map[string]map[string]bool {
	type slot struct{ typeName, field string }
	slots := make(map[string]slot, len(targets))
	index := make(map[string]map[string]bool, len(targets))
	for t := range targets {
		typeName, field, _ := strings.Cut(t, ".")
		slots[t] = slot{typeName, field}
		index[t] = make(map[string]bool)
	}

	for _, inst := range instances {
		for t, s := range slots {
			if inst.Type != s.typeName {
				continue
			}
			v, set := inst.Get(s.field)
			if !set {
				continue
			}
			index[t][dynamic.CanonicalKey(v)] = true
		}
	}
	return index
}

// matchingTree picks the type tree a validated value belongs to: the main
// tree when the shape agrees, otherwise the first any_of alternative that
// does. A nil result means the value matched an alternative with no refs to
// follow.
func matchingTree(f *dynamic.Field, v any) *dynamic.FieldType {
	if shapeMatches(f.Type, v) {
		return f.Type
	}
	for _, alt := range f.AnyOf {
		if shapeMatches(alt, v) {
			return alt
		}
	}
	return nil
}

func shapeMatches(ft *dynamic.FieldType, v any) bool {
	if ft == nil {
		return false
	}
	switch ft.Kind {
	case dynamic.KindList:
		_, ok := v.([]any)
		return ok
	case dynamic.KindMap:
		_, ok := v.(map[string]any)
		return ok
	case dynamic.KindRecord:
		_, ok := v.(*types.Instance)
		return ok
	case dynamic.KindBool:
		_, ok := v.(bool)
		return ok
	case dynamic.KindInt, dynamic.KindPositiveInt, dynamic.KindFloat:
		switch v.(type) {
		case json.Number, float64, float32, int, int32, int64:
			return true
		}
		return false
	default:
		_, ok := v.(string)
		return ok
	}
}

// checkUnique rejects the second occurrence of a value in a field declared
// unique. Null and unset fields never collide.
func checkUnique(reg *dynamic.Registry, instances []*types.Instance) error {
	seen := make(map[string]map[string]bool)
	for _, inst := range instances {
		desc, ok := reg.Descriptor(inst.Type)
		if !ok {
			continue
		}
		for i := range desc.Fields {
			f := &desc.Fields[i]
			if !f.Unique {
				continue
			}
			v, set := inst.Get(f.Name)
			if !set {
				continue
			}
			slot := inst.Type + "." + f.Name
			if seen[slot] == nil {
				seen[slot] = make(map[string]bool)
			}
			key := dynamic.CanonicalKey(v)
			if seen[slot][key] {
				return &types.FieldValidationError{
					Type:    inst.Type,
					Field:   f.Name,
					Code:    types.CodeUnique,
					Message: fmt.Sprintf("Value %v is not unique", v),
					Value:   v,
				}
			}
			seen[slot][key] = true
		}
	}
	return nil
}

// Package validation normalises candidate module values against the schema registry.
// Out-of-domain values are never errors: they are coerced, clamped, snapped or
// defaulted, and every correction is recorded in a Report.
// All functions are pure - no side effects.
package validation

import (
	"sort"

	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/domain/world"
)

// Normalizer maps candidate modules onto their schema.
type Normalizer struct{}

// New creates a normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Module normalises one candidate module. Every schema field is present in the
// result and lies in its domain (or at its Off value). Unknown fields are dropped.
// A candidate that is not an object yields all defaults.
func (n *Normalizer) Module(raw any, mod schema.Module) (Values, Report) {
	var report Report
	vals, _ := n.entry(raw, mod, 0, &report)
	return vals, report
}

// List normalises a repeated module. Entries that are not objects, or whose
// required field cannot be coerced, are dropped.
func (n *Normalizer) List(items []any, mod schema.Module) ([]Values, Report) {
	var report Report
	out := make([]Values, 0, len(items))
	for i, item := range items {
		vals, ok := n.entry(item, mod, i, &report)
		if !ok {
			report.add(Adjustment{Module: string(mod.Kind), Index: i, Kind: world.AdjustDropped, From: item})
			continue
		}
		out = append(out, vals)
	}
	return out, report
}

// Textures normalises texture layers and makes every layer distinct.
func (n *Normalizer) Textures(items []any, mod schema.Module) ([]Values, Report) {
	vals, report := n.List(items, mod)
	vals = Distinct(vals, mod, &report)
	return vals, report
}

// ListOf converts validated values back into list items.
func ListOf(vals []Values) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// entry normalises one object. ok is false when the entry must be dropped.
func (n *Normalizer) entry(raw any, mod schema.Module, index int, report *Report) (Values, bool) {
	fields, isObject := asMap(raw)
	if !isObject && mod.Repeated {
		return Values{}, false
	}

	module := string(mod.Kind)
	out := make(map[string]any, len(mod.Fields))
	var pending []Adjustment
	for _, f := range mod.Fields {
		rawVal, present := fields[f.Name]
		res, ok := normalizeField(f, rawVal, present)
		if !ok {
			return Values{}, false
		}
		out[f.Name] = res.value
		if res.kind != "" {
			pending = append(pending, Adjustment{
				Module: module,
				Index:  index,
				Field:  f.Name,
				Kind:   res.kind,
				From:   rawVal,
				To:     res.value,
			})
		}
	}

	unknown := make([]string, 0)
	for k := range fields {
		if _, ok := mod.Field(k); !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		pending = append(pending, Adjustment{Module: module, Index: index, Field: k, Kind: world.AdjustDropped, From: fields[k]})
	}

	for _, a := range pending {
		report.add(a)
	}
	return world.NewValues(mod.FieldNames(), out), true
}

func asMap(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case Values:
		return v.Map(), true
	}
	return nil, false
}

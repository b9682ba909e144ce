package validation

import (
	"math"
	"reflect"
	"slices"

	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/domain/world"
)

// Distinct makes every entry of a repeated module unique on the module's
// unique fields. A later duplicate is perturbed along one of those fields:
// stepped numeric fields first (upwards, then wrapping from the minimum), then
// enum fields other than the required one. When no perturbation is free the
// unique fields fall back to their defaults, and a duplicate that still
// collides is dropped.
func Distinct(items []Values, mod schema.Module, report *Report) []Values {
	keys := mod.UniqueFields()
	out := make([]Values, 0, len(items))
	for i, it := range items {
		if !containsKey(out, it, keys) {
			out = append(out, it)
			continue
		}

		if p, field, ok := perturb(it, out, mod, keys); ok {
			from, _ := it.Get(field)
			to, _ := p.Get(field)
			report.add(Adjustment{Module: string(mod.Kind), Index: i, Field: field, Kind: world.AdjustPerturbed, From: from, To: to})
			out = append(out, p)
			continue
		}

		d := it
		for _, name := range keys {
			if f, ok := mod.Field(name); ok && !f.Required {
				d = d.With(name, f.Default)
			}
		}
		if containsKey(out, d, keys) {
			report.add(Adjustment{Module: string(mod.Kind), Index: i, Kind: world.AdjustDropped, From: it})
			continue
		}
		for _, name := range keys {
			from, _ := it.Get(name)
			to, _ := d.Get(name)
			if !reflect.DeepEqual(from, to) {
				report.add(Adjustment{Module: string(mod.Kind), Index: i, Field: name, Kind: world.AdjustDefaulted, From: from, To: to})
			}
		}
		out = append(out, d)
	}
	return out
}

func perturb(it Values, taken []Values, mod schema.Module, keys []string) (Values, string, bool) {
	for _, f := range perturbable(mod, keys) {
		for _, c := range candidates(f, it) {
			p := it.With(f.Name, c)
			if !containsKey(taken, p, keys) {
				return p, f.Name, true
			}
		}
	}
	return Values{}, "", false
}

// perturbable lists the stepped numeric fields among keys, then the
// non-required enums.
func perturbable(mod schema.Module, keys []string) []schema.Field {
	var numeric, enums []schema.Field
	for _, f := range mod.Fields {
		if !slices.Contains(keys, f.Name) {
			continue
		}
		switch {
		case f.IsNumeric() && f.Step > 0:
			numeric = append(numeric, f)
		case f.Type == schema.FieldTypeEnum && !f.Required:
			enums = append(enums, f)
		}
	}
	return append(numeric, enums...)
}

// candidates returns alternative values for f, nearest first.
func candidates(f schema.Field, it Values) []any {
	if f.Type == schema.FieldTypeEnum {
		cur, _ := it.String(f.Name)
		start := 0
		for i, v := range f.Values {
			if v == cur {
				start = i
			}
		}
		out := make([]any, 0, len(f.Values)-1)
		for k := 1; k < len(f.Values); k++ {
			out = append(out, f.Values[(start+k)%len(f.Values)])
		}
		return out
	}

	cur, _ := it.Float(f.Name)
	lo, hi := f.Bounds()
	step := f.StepSize()
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil
	}

	var out []any
	for x := cur + step; x <= hi; x += step {
		out = append(out, numeric(f, x))
	}
	for x := lo; x < cur; x += step {
		out = append(out, numeric(f, x))
	}
	return out
}

func numeric(f schema.Field, x float64) any {
	if f.Type == schema.FieldTypeInt {
		return int(math.Round(x))
	}
	return x
}

// containsKey reports whether list holds an entry equal to v on keys.
func containsKey(list []Values, v Values, keys []string) bool {
	for _, x := range list {
		if sameKey(x, v, keys) {
			return true
		}
	}
	return false
}

func sameKey(a, b Values, keys []string) bool {
	for _, k := range keys {
		x, _ := a.Get(k)
		y, _ := b.Get(k)
		if !reflect.DeepEqual(x, y) {
			return false
		}
	}
	return true
}

// Package rules reconciles validated modules with what the description asked for.
// Rules are pure functions applied in a fixed order; explicit negation runs last and
// has the final word, terrain-kind inference overrides schema defaults.
package rules

import (
	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/core/validation"
	"github.com/easyworld/worldgen/domain/world"
)

// Set is the validated configuration the rules operate on (value type).
// City is nil when no city is present.
type Set struct {
	Terrains   []world.Terrain
	Objects    []world.Values
	Atmosphere world.Values
	City       *world.Values

	// Applied names the rules that changed something, in order.
	Applied []string
}

// Rule is one named consistency rule. Apply returns the new set and whether it
// changed anything; it must not mutate its input.
type Rule struct {
	Name  string
	Apply func(Set, Context) (Set, bool)
}

// Engine applies consistency rules in order.
type Engine struct {
	reg   *schema.Registry
	norm  *validation.Normalizer
	rules []Rule
}

// NewEngine creates an engine with the standard rule order.
func NewEngine(reg *schema.Registry) *Engine {
	e := &Engine{reg: reg, norm: validation.New()}
	e.rules = []Rule{
		{Name: "replicate_terrains", Apply: e.replicateTerrains},
		{Name: "city_mode", Apply: e.cityMode},
		{Name: "terrain_kind", Apply: e.terrainKind},
		{Name: "negation", Apply: e.negation},
	}
	return e
}

// Rules returns the rule names in application order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Reconcile applies every rule in order and returns the reconciled set.
func (e *Engine) Reconcile(set Set, ctx Context) Set {
	out := set.clone()
	out.Applied = nil
	for _, r := range e.rules {
		next, changed := r.Apply(out, ctx)
		if changed {
			next.Applied = append(out.Applied, r.Name)
		} else {
			next.Applied = out.Applied
		}
		out = next
	}
	return out
}

// clone copies the slices so rules can replace elements freely.
func (s Set) clone() Set {
	c := s
	c.Terrains = make([]world.Terrain, len(s.Terrains))
	for i, t := range s.Terrains {
		c.Terrains[i] = cloneTerrain(t)
	}
	c.Objects = append([]world.Values(nil), s.Objects...)
	if s.City != nil {
		city := *s.City
		c.City = &city
	}
	c.Applied = append([]string(nil), s.Applied...)
	return c
}

func cloneTerrain(t world.Terrain) world.Terrain {
	t.Textures = append([]world.Values(nil), t.Textures...)
	return t
}

// disable sets every field of mod that has an Off value to that value.
func disable(v world.Values, mod schema.Module) (world.Values, bool) {
	changed := false
	for _, f := range mod.Fields {
		if !f.CanDisable() {
			continue
		}
		if cur, _ := v.Get(f.Name); cur == f.Off {
			continue
		}
		v = v.With(f.Name, f.Off)
		changed = true
	}
	return v, changed
}

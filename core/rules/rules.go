package rules

import (
	"slices"

	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/core/validation"
	"github.com/easyworld/worldgen/domain/world"
)

// Texture layers that fit a terrain kind, preferred first.
var kindTextures = map[TerrainKind][]string{
	KindDesert:   {"desert", "sand"},
	KindSnow:     {"snow"},
	KindMountain: {"mountainRock", "rock"},
}

// replicateTerrains adds copies of the last terrain until there is one per
// mentioned kind, then tags each terrain with its kind.
func (e *Engine) replicateTerrains(s Set, ctx Context) (Set, bool) {
	s = s.clone()
	changed := false

	if len(s.Terrains) == 0 {
		s.Terrains = append(s.Terrains, e.defaultTerrain())
		changed = true
	}
	for len(s.Terrains) < len(ctx.Kinds) {
		s.Terrains = append(s.Terrains, cloneTerrain(s.Terrains[len(s.Terrains)-1]))
		changed = true
	}

	for i := range s.Terrains {
		kind := string(ctx.KindAt(i))
		if s.Terrains[i].Kind != kind {
			s.Terrains[i].Kind = kind
			changed = true
		}
	}
	return s, changed
}

// cityMode makes sure a city exists and clears trees so they do not grow
// through streets.
func (e *Engine) cityMode(s Set, ctx Context) (Set, bool) {
	if !ctx.CityMode {
		return s, false
	}
	s = s.clone()
	changed := false

	if s.City == nil {
		city, _ := e.norm.Module(nil, e.reg.MustSchemaFor(schema.KindCity))
		s.City = &city
		changed = true
	}

	trees := e.reg.MustSchemaFor(schema.KindTrees)
	for i := range s.Terrains {
		var c bool
		s.Terrains[i].Trees, c = disable(s.Terrains[i].Trees, trees)
		changed = changed || c
	}
	return s, changed
}

// terrainKind applies what a terrain kind implies: deserts and snowfields carry
// no grass or trees unless asked for, and desert, snow and mountain terrains get
// a fitting texture layer.
func (e *Engine) terrainKind(s Set, ctx Context) (Set, bool) {
	s = s.clone()
	changed := false

	grass := e.reg.MustSchemaFor(schema.KindGrass)
	trees := e.reg.MustSchemaFor(schema.KindTrees)
	textures := e.reg.MustSchemaFor(schema.KindTextures)

	for i := range s.Terrains {
		t := &s.Terrains[i]
		kind := TerrainKind(t.Kind)

		if kind == KindDesert || kind == KindSnow {
			var c bool
			if !ctx.IsRequested(ClassGrass) {
				t.Grass, c = disable(t.Grass, grass)
				changed = changed || c
			}
			if !ctx.IsRequested(ClassTrees) {
				t.Trees, c = disable(t.Trees, trees)
				changed = changed || c
			}
		}

		wanted, ok := kindTextures[kind]
		if !ok || hasTexture(t.Textures, wanted) {
			continue
		}
		layer, _ := e.norm.Module(map[string]any{"texture": wanted[0]}, textures)
		var report validation.Report
		t.Textures = validation.Distinct(append(t.Textures, layer), textures, &report)
		changed = true
	}
	return s, changed
}

// negation enforces explicit exclusions from the description.
func (e *Engine) negation(s Set, ctx Context) (Set, bool) {
	if len(ctx.Negated) == 0 {
		return s, false
	}
	s = s.clone()
	changed := false

	water := e.reg.MustSchemaFor(schema.KindWater)
	grass := e.reg.MustSchemaFor(schema.KindGrass)
	trees := e.reg.MustSchemaFor(schema.KindTrees)

	for i := range s.Terrains {
		t := &s.Terrains[i]
		var c bool
		if ctx.IsNegated(ClassWater) {
			t.Water, c = disable(t.Water, water)
			changed = changed || c
		}
		if ctx.IsNegated(ClassGrass) {
			t.Grass, c = disable(t.Grass, grass)
			changed = changed || c
		}
		if ctx.IsNegated(ClassTrees) {
			t.Trees, c = disable(t.Trees, trees)
			changed = changed || c
		}
	}

	if ctx.IsNegated(ClassObjects) && len(s.Objects) > 0 {
		s.Objects = []world.Values{}
		changed = true
	}

	if ctx.IsNegated(ClassFog) {
		if cur, _ := s.Atmosphere.Float("fogIntensity"); cur != 0 {
			s.Atmosphere = s.Atmosphere.With("fogIntensity", 0.0)
			changed = true
		}
	}

	if ctx.IsNegated(ClassCity) && s.City != nil {
		s.City = nil
		changed = true
	}
	return s, changed
}

func (e *Engine) defaultTerrain() world.Terrain {
	mod := func(k schema.Kind) world.Values {
		v, _ := e.norm.Module(nil, e.reg.MustSchemaFor(k))
		return v
	}
	return world.Terrain{
		Heights:  mod(schema.KindHeights),
		Textures: []world.Values{},
		Trees:    mod(schema.KindTrees),
		Grass:    mod(schema.KindGrass),
		Water:    mod(schema.KindWater),
	}
}

func hasTexture(layers []world.Values, names []string) bool {
	for _, l := range layers {
		if name, _ := l.String("texture"); slices.Contains(names, name) {
			return true
		}
	}
	return false
}

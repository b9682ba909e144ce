// Package compose assembles the final world configuration from reconciled modules.
package compose

import (
	"fmt"

	"github.com/easyworld/worldgen/core/rules"
	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/core/validation"
	"github.com/easyworld/worldgen/domain/world"
)

// Composer builds world.Config values.
type Composer struct {
	reg  *schema.Registry
	norm *validation.Normalizer
}

// New creates a composer for the registry.
func New(reg *schema.Registry) *Composer {
	return &Composer{reg: reg, norm: validation.New()}
}

// Compose builds the configuration. Missing modules are filled with defaults and
// at least one terrain is always emitted; the city is emitted only when present.
// The returned config is complete; nothing is returned on error.
func (c *Composer) Compose(set rules.Set) (*world.Config, error) {
	cfg := &world.Config{
		Terrains: make([]world.Terrain, 0, max(1, len(set.Terrains))),
		Objects:  make([]world.Values, 0, len(set.Objects)),
	}

	terrains := set.Terrains
	if len(terrains) == 0 {
		terrains = []world.Terrain{{}}
	}
	for i, t := range terrains {
		out, err := c.terrain(t)
		if err != nil {
			return nil, fmt.Errorf("terrain %d: %w", i, err)
		}
		cfg.Terrains = append(cfg.Terrains, out)
	}

	for i, o := range set.Objects {
		if err := c.check(schema.KindObjects, o); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		cfg.Objects = append(cfg.Objects, o)
	}

	atm, err := c.module(schema.KindAtmosphere, set.Atmosphere)
	if err != nil {
		return nil, err
	}
	cfg.Atmosphere = atm

	if set.City != nil {
		city, err := c.module(schema.KindCity, *set.City)
		if err != nil {
			return nil, err
		}
		cfg.City = &city
	}

	return cfg, nil
}

func (c *Composer) terrain(t world.Terrain) (world.Terrain, error) {
	out := world.Terrain{Kind: t.Kind, Textures: make([]world.Values, 0, len(t.Textures))}

	var err error
	if out.Heights, err = c.module(schema.KindHeights, t.Heights); err != nil {
		return world.Terrain{}, err
	}
	for i, layer := range t.Textures {
		if err := c.check(schema.KindTextures, layer); err != nil {
			return world.Terrain{}, fmt.Errorf("texture %d: %w", i, err)
		}
		out.Textures = append(out.Textures, layer)
	}
	if out.Trees, err = c.module(schema.KindTrees, t.Trees); err != nil {
		return world.Terrain{}, err
	}
	if out.Grass, err = c.module(schema.KindGrass, t.Grass); err != nil {
		return world.Terrain{}, err
	}
	if out.Water, err = c.module(schema.KindWater, t.Water); err != nil {
		return world.Terrain{}, err
	}
	return out, nil
}

// module returns v, or the module defaults when v is empty.
func (c *Composer) module(kind schema.Kind, v world.Values) (world.Values, error) {
	if v.IsZero() {
		mod, err := c.reg.SchemaFor(kind)
		if err != nil {
			return world.Values{}, err
		}
		defaults, _ := c.norm.Module(nil, mod)
		return defaults, nil
	}
	return v, c.check(kind, v)
}

// check verifies that v holds exactly the schema fields, each in domain.
func (c *Composer) check(kind schema.Kind, v world.Values) error {
	mod, err := c.reg.SchemaFor(kind)
	if err != nil {
		return err
	}
	if v.Len() != len(mod.Fields) {
		return fmt.Errorf("%s: %d fields, want %d", kind, v.Len(), len(mod.Fields))
	}
	for _, f := range mod.Fields {
		x, ok := v.Get(f.Name)
		if !ok {
			return fmt.Errorf("%s.%s: missing", kind, f.Name)
		}
		if !f.Allows(x) {
			return fmt.Errorf("%s.%s: %v outside domain", kind, f.Name, x)
		}
	}
	return nil
}

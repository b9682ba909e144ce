/*
Package schema defines the field schema registry for world configuration modules.

A module is one named group of renderer parameters (heights, textures, grass, trees,
water, objects, atmosphere, city). Every field declares its type, its domain, its
default and, optionally, the value that switches the feature off. Modules are
declared in YAML and embedded into the binary; the registry is parsed once and never
mutated afterwards.

# Module Definition

	module: water
	key: waterGeneratorData

	fields:
	  - { name: waterType,  type: enum,  values: [river, lake, ocean, none], default: none, off: none }
	  - { name: waterLevel, type: float, min: 0, max: 50, default: 20 }
	  - { name: randomize,  type: bool,  default: false }

Repeated modules (textures, objects) describe the shape of one list entry:

	module: objects
	key: objectList
	repeated: true

	fields:
	  - { name: name, type: enum, values: [Brick House, Ferris Wheel, Small House], required: true }
	  - { name: x,    type: float, min: 0, max: 1024, default: 512 }

# Field Types

  - int:    whole number, clamped to [min, max]
  - float:  number, clamped to [min, max], optionally snapped to levels
  - bool:   true/false
  - enum:   one of values (matched case-insensitively)
  - color:  {r, g, b} with every channel in [0, 1]
  - string: free text

# Off Values

Some fields have a sentinel that disables a feature even though it lies outside the
normal domain: Grass.density is [1, 100] but 0 means "no grass". The consistency
rules write Off values; the validator accepts them as in-domain.

# Parsing

	reg := schema.Default()
	mod, err := reg.SchemaFor(schema.KindHeights)

	mods, err := schema.ParseDir("defs/")
	reg, err := schema.NewRegistry(mods...)

An inconsistent definition (min > max, default outside the domain, enum without
values) is reported as a *SchemaError.
*/
package schema

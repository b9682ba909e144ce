// Package world provides the world configuration value types handed to the renderer,
// the adjustment record produced while normalising oracle output, and the error
// taxonomy of the generation pipeline.
// All types are plain values - no side effects.
package world

import "time"

// Terrain is one terrain tile and its generators (value type).
type Terrain struct {
	// Kind is the terrain kind inferred from the description (desert, snow, ...).
	// Empty when no kind was mentioned. Not part of the renderer contract.
	Kind string `json:"-"`

	Heights  Values   `json:"heightsGeneratorData"`
	Textures []Values `json:"texturesGeneratorDataList"`
	Trees    Values   `json:"treeGeneratorData"`
	Grass    Values   `json:"grassGeneratorData"`
	Water    Values   `json:"waterGeneratorData"`
}

// Config is the fully validated world configuration consumed by the renderer.
type Config struct {
	Terrains   []Terrain `json:"terrainsData"`
	Objects    []Values  `json:"objectList"`
	Atmosphere Values    `json:"atmosphereGeneratorData"`
	City       *Values   `json:"cityData,omitempty"`
}

// HasCity reports whether the renderer should build a city.
func (c Config) HasCity() bool {
	return c.City != nil
}

// Result is the outcome of one generation request.
type Result struct {
	RequestID   string
	Config      *Config
	Adjustments []Adjustment
	Kinds       []string // terrain kinds in order of first mention
	CityMode    bool
	Duration    time.Duration
}

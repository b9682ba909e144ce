package schema

import (
	"math"
	"slices"
)

// Field defines one parameter of a module.
type Field struct {
	// Name is the renderer key for this field.
	Name string `yaml:"name" json:"name"`

	// Type is the field type. See FieldType constants.
	Type FieldType `yaml:"type" json:"type"`

	// Min and Max bound numeric fields. Nil means unbounded on that side.
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`

	// Values lists valid values for enum type fields.
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`

	// Default value for this field.
	Default any `yaml:"default" json:"default"`

	// Off is the value that disables the feature this field controls.
	// It may lie outside [Min, Max].
	Off any `yaml:"off,omitempty" json:"off,omitempty"`

	// Step is the smallest meaningful change when a value has to be perturbed.
	Step float64 `yaml:"step,omitempty" json:"step,omitempty"`

	// Levels are the discrete values a float field snaps to.
	Levels []float64 `yaml:"levels,omitempty" json:"levels,omitempty"`

	// Required marks the identity field of a repeated entry; an entry whose
	// required field cannot be coerced is dropped instead of defaulted.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Description for documentation and the oracle prompt.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// FieldType represents the type of a schema field.
type FieldType string

const (
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
	FieldTypeEnum   FieldType = "enum"
	FieldTypeColor  FieldType = "color"
	FieldTypeString FieldType = "string"
)

// Color is an RGB triple with channels in [0, 1].
type Color struct {
	R float64 `yaml:"r" json:"r"`
	G float64 `yaml:"g" json:"g"`
	B float64 `yaml:"b" json:"b"`
}

// IsNumeric reports whether the field holds an int or a float.
func (f Field) IsNumeric() bool {
	return f.Type == FieldTypeInt || f.Type == FieldTypeFloat
}

// Bounds returns the numeric domain, using infinities for open sides.
func (f Field) Bounds() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if f.Min != nil {
		lo = *f.Min
	}
	if f.Max != nil {
		hi = *f.Max
	}
	return lo, hi
}

// CanDisable reports whether the field has an Off value.
func (f Field) CanDisable() bool {
	return f.Off != nil
}

// StepSize returns Step, falling back to 1 for ints and 0.5 for floats.
func (f Field) StepSize() float64 {
	if f.Step > 0 {
		return f.Step
	}
	if f.Type == FieldTypeInt {
		return 1
	}
	return 0.5
}

// Allows reports whether v is a normalised, in-domain value for the field.
// The Off value is always allowed.
func (f Field) Allows(v any) bool {
	if f.Off != nil && v == f.Off {
		return true
	}
	switch f.Type {
	case FieldTypeInt:
		n, ok := v.(int)
		if !ok {
			return false
		}
		lo, hi := f.Bounds()
		return float64(n) >= lo && float64(n) <= hi
	case FieldTypeFloat:
		x, ok := v.(float64)
		if !ok || math.IsNaN(x) {
			return false
		}
		lo, hi := f.Bounds()
		if x < lo || x > hi {
			return false
		}
		return len(f.Levels) == 0 || slices.Contains(f.Levels, x)
	case FieldTypeBool:
		_, ok := v.(bool)
		return ok
	case FieldTypeEnum:
		s, ok := v.(string)
		return ok && slices.Contains(f.Values, s)
	case FieldTypeColor:
		c, ok := v.(Color)
		return ok && unit(c.R) && unit(c.G) && unit(c.B)
	case FieldTypeString:
		_, ok := v.(string)
		return ok
	}
	return false
}

func unit(x float64) bool {
	return x >= 0 && x <= 1
}

func isValidFieldType(t FieldType) bool {
	switch t {
	case FieldTypeInt, FieldTypeFloat, FieldTypeBool, FieldTypeEnum, FieldTypeColor, FieldTypeString:
		return true
	}
	return false
}

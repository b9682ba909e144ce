package schema

// Kind names a configuration module.
type Kind string

const (
	KindHeights    Kind = "heights"
	KindTextures   Kind = "textures"
	KindGrass      Kind = "grass"
	KindTrees      Kind = "trees"
	KindWater      Kind = "water"
	KindObjects    Kind = "objects"
	KindAtmosphere Kind = "atmosphere"
	KindCity       Kind = "city"
)

// Kinds lists every module kind in renderer order.
var Kinds = []Kind{
	KindHeights,
	KindTextures,
	KindGrass,
	KindTrees,
	KindWater,
	KindObjects,
	KindAtmosphere,
	KindCity,
}

// Module is the declarative definition of one configuration module.
type Module struct {
	// Kind identifies the module.
	Kind Kind `yaml:"module" json:"module"`

	// Key is the renderer key the module is emitted under.
	Key string `yaml:"key" json:"key"`

	// Aliases are alternative input keys accepted from the oracle.
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	// Repeated modules are lists; Fields describe one entry.
	Repeated bool `yaml:"repeated,omitempty" json:"repeated,omitempty"`

	// Description for documentation and the oracle prompt.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Unique names the fields that identify an entry of a repeated module.
	// Empty means the whole entry.
	Unique []string `yaml:"unique,omitempty" json:"unique,omitempty"`

	// Fields in renderer order.
	Fields []Field `yaml:"fields" json:"fields"`
}

// Field returns the named field.
func (m Module) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in order.
func (m Module) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Required returns the identity field of a repeated module, if any.
func (m Module) Required() (Field, bool) {
	for _, f := range m.Fields {
		if f.Required {
			return f, true
		}
	}
	return Field{}, false
}

// UniqueFields returns the fields compared when checking entries for
// duplicates.
func (m Module) UniqueFields() []string {
	if len(m.Unique) > 0 {
		return append([]string(nil), m.Unique...)
	}
	return m.FieldNames()
}

// Defaults returns every field at its default value.
func (m Module) Defaults() map[string]any {
	out := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		out[f.Name] = f.Default
	}
	return out
}

// clone returns a deep copy so callers cannot mutate registry state.
func (m Module) clone() Module {
	c := m
	c.Aliases = append([]string(nil), m.Aliases...)
	c.Unique = append([]string(nil), m.Unique...)
	c.Fields = make([]Field, len(m.Fields))
	for i, f := range m.Fields {
		f.Values = append([]string(nil), f.Values...)
		f.Levels = append([]float64(nil), f.Levels...)
		if f.Min != nil {
			lo := *f.Min
			f.Min = &lo
		}
		if f.Max != nil {
			hi := *f.Max
			f.Max = &hi
		}
		c.Fields[i] = f
	}
	return c
}

package extract

// Document is the loosely typed candidate configuration decoded from the oracle.
type Document map[string]any

// Terrains returns the terrain entries. A lone terrainData object, or a document
// that carries generator keys at the top level, counts as one terrain.
func (d Document) Terrains() []any {
	if list, ok := d[KeyTerrains].([]any); ok {
		return list
	}
	if obj, ok := d[KeyTerrains].(map[string]any); ok {
		return []any{obj}
	}

	switch t := d[KeyTerrain].(type) {
	case []any:
		return t
	case map[string]any:
		return []any{t}
	}

	for _, k := range []string{KeyHeights, KeyTextures, KeyTrees, KeyGrass, KeyWater} {
		if _, ok := d[k]; ok {
			return []any{map[string]any(d)}
		}
	}
	return nil
}

// Objects returns the placed object entries.
func (d Document) Objects() []any {
	list, _ := d[KeyObjects].([]any)
	return list
}

// Atmosphere returns the atmosphere module, accepting the day/night alias.
func (d Document) Atmosphere() any {
	if v, ok := d[KeyAtmosphere]; ok {
		return v
	}
	return d[KeyDayNight]
}

// City returns the city module and whether the oracle supplied one.
func (d Document) City() (any, bool) {
	v, ok := d[KeyCity]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Section returns a nested module of a terrain entry.
func Section(terrain any, key string) any {
	m, ok := terrain.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

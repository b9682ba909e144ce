package validation_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/core/validation"
	"github.com/easyworld/worldgen/domain/world"
)

func mustModule(t *testing.T, kind schema.Kind) schema.Module {
	t.Helper()
	mod, err := schema.Default().SchemaFor(kind)
	if err != nil {
		t.Fatalf("SchemaFor(%q): %v", kind, err)
	}
	return mod
}

func get(t *testing.T, v validation.Values, name string) any {
	t.Helper()
	x, ok := v.Get(name)
	if !ok {
		t.Fatalf("field %q missing", name)
	}
	return x
}

func TestModule_FieldCoercion(t *testing.T) {
	heights := mustModule(t, schema.KindHeights)

	tests := []struct {
		name  string
		field string
		raw   any
		want  any
		kind  world.AdjustmentKind
	}{
		{"in range int", "depth", 120.0, 120, ""},
		{"int above max", "depth", 400.0, 200, world.AdjustClamped},
		{"int below min", "octaves", -3.0, 1, world.AdjustClamped},
		{"int from fraction rounds half away", "octaves", 4.5, 5, world.AdjustCoerced},
		{"int from numeric string", "octaves", "7", 7, world.AdjustCoerced},
		{"int from garbage", "octaves", "many", 4, world.AdjustDefaulted},
		{"int from bool", "depth", true, 100, world.AdjustDefaulted},
		{"float in range", "scale", 250.5, 250.5, ""},
		{"float clamped", "persistence", 3.0, 1.0, world.AdjustClamped},
		{"float from string", "scale", " 300 ", 300.0, world.AdjustCoerced},
		{"float NaN string", "scale", "NaN", 200.0, world.AdjustDefaulted},
		{"float Inf string", "scale", "+Inf", 200.0, world.AdjustDefaulted},
		{"bool", "useFalloffMap", false, false, ""},
		{"bool from string", "randomize", "TRUE", true, world.AdjustCoerced},
		{"bool from number", "randomize", 1.0, false, world.AdjustDefaulted},
		{"enum exact", "heightCurve", "sine", "sine", ""},
		{"enum case folded", "heightCurve", "EaseIn", "easeIn", world.AdjustCoerced},
		{"enum unknown", "heightCurve", "wobbly", "linear", world.AdjustDefaulted},
		{"missing", "width", nil, 1024, world.AdjustDefaulted},
	}

	n := validation.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{}
			if tt.raw != nil {
				raw[tt.field] = tt.raw
			}
			vals, report := n.Module(raw, heights)

			if got := get(t, vals, tt.field); got != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.field, got, tt.want)
			}

			adj := report.For(string(schema.KindHeights), tt.field)
			if tt.kind == "" {
				if len(adj) != 0 {
					t.Errorf("unexpected adjustments: %v", adj)
				}
				return
			}
			if len(adj) != 1 || adj[0].Kind != tt.kind {
				t.Errorf("adjustments = %v, want one %s", adj, tt.kind)
			}
		})
	}
}

func TestModule_EveryFieldPresentAndInDomain(t *testing.T) {
	n := validation.New()

	garbage := []any{
		nil,
		"not an object",
		[]any{1, 2, 3},
		map[string]any{},
		map[string]any{"depth": 1e9, "octaves": -1e9, "scale": "x", "heightCurve": 5.0, "extra": 1.0},
	}

	for _, kind := range schema.Kinds {
		mod := mustModule(t, kind)
		if mod.Repeated {
			continue
		}
		for _, raw := range garbage {
			vals, _ := n.Module(raw, mod)
			if vals.Len() != len(mod.Fields) {
				t.Errorf("%s: %d fields, want %d", kind, vals.Len(), len(mod.Fields))
			}
			for _, f := range mod.Fields {
				v, _ := vals.Get(f.Name)
				if !f.Allows(v) {
					t.Errorf("%s.%s = %#v is outside its domain", kind, f.Name, v)
				}
			}
		}
	}
}

func TestModule_Idempotent(t *testing.T) {
	n := validation.New()

	inputs := []struct {
		kind schema.Kind
		raw  map[string]any
	}{
		{schema.KindHeights, map[string]any{"width": 2000.0, "depth": "150", "octaves": 3.5, "heightCurve": "BEZIER", "junk": true}},
		{schema.KindGrass, map[string]any{"density": 0.0, "grassTextures": 0.0, "minLevel": 0.0}},
		{schema.KindTrees, map[string]any{"density": 5.0, "islandSize": -3.0}},
		{schema.KindWater, map[string]any{"waterType": "Lake", "riverWidthRangeX": 50.0}},
		{schema.KindAtmosphere, map[string]any{"fogIntensity": 0.07, "skyTint": "#ff8000", "fogColor": []any{2.0, 0.5, -1.0}}},
		{schema.KindCity, map[string]any{"citySize": "Very_Large", "trafficHand": "lefthand"}},
	}

	for _, in := range inputs {
		t.Run(string(in.kind), func(t *testing.T) {
			mod := mustModule(t, in.kind)
			once, _ := n.Module(in.raw, mod)
			twice, report := n.Module(once, mod)

			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("second pass changed values (-once +twice):\n%s", diff)
			}
			if !report.Empty() {
				t.Errorf("second pass adjustments = %v, want none", report.Adjustments)
			}
		})
	}
}

func TestModule_OffValues(t *testing.T) {
	n := validation.New()
	grass := mustModule(t, schema.KindGrass)

	vals, report := n.Module(map[string]any{"density": 0.0, "grassTextures": 0.0}, grass)

	if got := get(t, vals, "density"); got != 0.0 {
		t.Errorf("density = %#v, want off value 0", got)
	}
	if got := get(t, vals, "grassTextures"); got != 0 {
		t.Errorf("grassTextures = %#v, want off value 0", got)
	}
	if len(report.For("grass", "density")) != 0 {
		t.Error("off value should not be adjusted")
	}

	vals, _ = n.Module(map[string]any{"density": 0.5}, grass)
	if got := get(t, vals, "density"); got != 1.0 {
		t.Errorf("density = %#v, want clamp to 1", got)
	}
}

func TestModule_FogSnapsToLevels(t *testing.T) {
	n := validation.New()
	atm := mustModule(t, schema.KindAtmosphere)

	tests := []struct {
		raw  float64
		want float64
	}{
		{0, 0},
		{0.005, 0},
		{0.03, 0.02},
		{0.07, 0.05},
		{0.15, 0.1},
		{0.29, 0.3},
		{0.9, 0.3},
	}

	for _, tt := range tests {
		vals, _ := n.Module(map[string]any{"fogIntensity": tt.raw}, atm)
		if got := get(t, vals, "fogIntensity"); got != tt.want {
			t.Errorf("fogIntensity(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestModule_Colors(t *testing.T) {
	n := validation.New()
	atm := mustModule(t, schema.KindAtmosphere)

	tests := []struct {
		name string
		raw  any
		want schema.Color
	}{
		{"object", map[string]any{"r": 0.1, "g": 0.2, "b": 0.3}, schema.Color{R: 0.1, G: 0.2, B: 0.3}},
		{"missing channel", map[string]any{"r": 1.0}, schema.Color{R: 1, G: 0.5, B: 0.5}},
		{"clamped channel", map[string]any{"r": 2.0, "g": -1.0, "b": 0.5}, schema.Color{R: 1, G: 0, B: 0.5}},
		{"array", []any{0.0, 1.0, 0.25}, schema.Color{R: 0, G: 1, B: 0.25}},
		{"hex", "#ff0000", schema.Color{R: 1, G: 0, B: 0}},
		{"bad hex", "#zz0000", schema.Color{R: 0.5, G: 0.5, B: 0.5}},
		{"wrong type", 7.0, schema.Color{R: 0.5, G: 0.5, B: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, _ := n.Module(map[string]any{"skyTint": tt.raw}, atm)
			got, ok := get(t, vals, "skyTint").(schema.Color)
			if !ok {
				t.Fatalf("skyTint is %T, want schema.Color", get(t, vals, "skyTint"))
			}
			if math.Abs(got.R-tt.want.R) > 1e-9 || math.Abs(got.G-tt.want.G) > 1e-9 || math.Abs(got.B-tt.want.B) > 1e-9 {
				t.Errorf("skyTint = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestModule_UnknownFieldsDropped(t *testing.T) {
	n := validation.New()
	water := mustModule(t, schema.KindWater)

	vals, report := n.Module(map[string]any{"waterType": "river", "lavaLevel": 3.0}, water)

	if _, ok := vals.Get("lavaLevel"); ok {
		t.Error("unknown field kept")
	}
	adj := report.For("water", "lavaLevel")
	if len(adj) != 1 || adj[0].Kind != world.AdjustDropped {
		t.Errorf("adjustments = %v, want one dropped", adj)
	}
}

func TestModule_SchemaOrder(t *testing.T) {
	n := validation.New()
	water := mustModule(t, schema.KindWater)

	vals, _ := n.Module(map[string]any{"autoUpdate": true, "waterType": "ocean"}, water)

	if diff := cmp.Diff(water.FieldNames(), vals.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestList_DropsUnusableEntries(t *testing.T) {
	n := validation.New()
	objects := mustModule(t, schema.KindObjects)

	items := []any{
		map[string]any{"name": "Ferris Wheel", "x": 100.0, "y": 2000.0},
		map[string]any{"name": "Castle"},
		"Brick House",
		map[string]any{"x": 10.0},
		map[string]any{"name": "small house", "scale": 9.0},
	}

	vals, report := n.List(items, objects)

	if len(vals) != 2 {
		t.Fatalf("len(vals) = %d, want 2", len(vals))
	}
	if got := get(t, vals[0], "y"); got != 1024.0 {
		t.Errorf("y = %v, want 1024", got)
	}
	if got := get(t, vals[1], "name"); got != "Small House" {
		t.Errorf("name = %v, want Small House", got)
	}
	if got := get(t, vals[1], "scale"); got != 4.0 {
		t.Errorf("scale = %v, want 4", got)
	}
	if got := report.Count(world.AdjustDropped); got != 3 {
		t.Errorf("dropped = %d, want 3", got)
	}
}

func TestList_Empty(t *testing.T) {
	vals, report := validation.New().List(nil, mustModule(t, schema.KindObjects))
	if len(vals) != 0 || !report.Empty() {
		t.Errorf("List(nil) = %v, %v; want empty", vals, report)
	}
}

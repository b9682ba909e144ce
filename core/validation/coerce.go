package validation

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/domain/world"
)

// outcome is the result of normalising one field value.
type outcome struct {
	value any
	kind  world.AdjustmentKind // empty when the value was accepted unchanged
}

func accepted(v any) outcome { return outcome{value: v} }

func adjusted(v any, kind world.AdjustmentKind) outcome {
	return outcome{value: v, kind: kind}
}

// normalizeField maps one raw value onto the field domain. ok is false when
// the value is unusable and the field has no default (required list fields).
func normalizeField(f schema.Field, raw any, present bool) (outcome, bool) {
	if !present || raw == nil {
		if f.Default == nil {
			return outcome{}, false
		}
		return adjusted(f.Default, world.AdjustDefaulted), true
	}

	var out outcome
	var ok bool
	switch f.Type {
	case schema.FieldTypeInt:
		out, ok = normalizeInt(f, raw)
	case schema.FieldTypeFloat:
		out, ok = normalizeFloat(f, raw)
	case schema.FieldTypeBool:
		out, ok = normalizeBool(raw)
	case schema.FieldTypeEnum:
		out, ok = normalizeEnum(f, raw)
	case schema.FieldTypeColor:
		out, ok = normalizeColor(f, raw)
	case schema.FieldTypeString:
		out, ok = normalizeString(raw)
	}

	if !ok {
		if f.Default == nil {
			return outcome{}, false
		}
		return adjusted(f.Default, world.AdjustDefaulted), true
	}
	return out, true
}

// number converts JSON numbers and numeric strings. coerced is true for strings.
func number(raw any) (n float64, coerced, ok bool) {
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float32:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false, false
		}
		n, coerced = parsed, true
	default:
		return 0, false, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, false
	}
	return n, coerced, true
}

func normalizeInt(f schema.Field, raw any) (outcome, bool) {
	n, coerced, ok := number(raw)
	if !ok {
		return outcome{}, false
	}
	// math.Round rounds half away from zero.
	rounded := math.Round(n)
	if rounded != n {
		coerced = true
	}

	lo, hi := f.Bounds()
	if f.Off != nil && int(rounded) == f.Off {
		return withKind(f.Off, coerced), true
	}
	if rounded < lo || rounded > hi {
		return adjusted(int(math.Min(math.Max(rounded, lo), hi)), world.AdjustClamped), true
	}
	return withKind(int(rounded), coerced), true
}

func normalizeFloat(f schema.Field, raw any) (outcome, bool) {
	n, coerced, ok := number(raw)
	if !ok {
		return outcome{}, false
	}

	if f.Off != nil && n == f.Off {
		return withKind(f.Off, coerced), true
	}

	lo, hi := f.Bounds()
	kind := world.AdjustmentKind("")
	if coerced {
		kind = world.AdjustCoerced
	}
	if n < lo || n > hi {
		n = math.Min(math.Max(n, lo), hi)
		kind = world.AdjustClamped
	}
	if len(f.Levels) > 0 {
		if snapped := nearestLevel(f.Levels, n); snapped != n {
			n = snapped
			kind = world.AdjustSnapped
		}
	}
	return outcome{value: n, kind: kind}, true
}

// nearestLevel returns the level closest to n; ties go to the lower level.
func nearestLevel(levels []float64, n float64) float64 {
	sorted := slices.Clone(levels)
	slices.Sort(sorted)
	best := sorted[0]
	for _, l := range sorted[1:] {
		if math.Abs(l-n) < math.Abs(best-n) {
			best = l
		}
	}
	return best
}

func normalizeBool(raw any) (outcome, bool) {
	switch v := raw.(type) {
	case bool:
		return accepted(v), true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return adjusted(true, world.AdjustCoerced), true
		case "false":
			return adjusted(false, world.AdjustCoerced), true
		}
	}
	return outcome{}, false
}

func normalizeEnum(f schema.Field, raw any) (outcome, bool) {
	s, ok := raw.(string)
	if !ok {
		return outcome{}, false
	}
	if slices.Contains(f.Values, s) {
		return accepted(s), true
	}
	want := enumKey(s)
	for _, v := range f.Values {
		if enumKey(v) == want {
			return adjusted(v, world.AdjustCoerced), true
		}
	}
	return outcome{}, false
}

// enumKey folds case and drops spaces, underscores and hyphens.
func enumKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeColor(f schema.Field, raw any) (outcome, bool) {
	def, _ := f.Default.(schema.Color)

	var c schema.Color
	coerced := false
	switch v := raw.(type) {
	case schema.Color:
		c = v
	case map[string]any:
		c = schema.Color{
			R: channel(v, def.R, "r", "R", "red"),
			G: channel(v, def.G, "g", "G", "green"),
			B: channel(v, def.B, "b", "B", "blue"),
		}
		for _, k := range []string{"r", "g", "b"} {
			if _, ok := v[k]; !ok {
				coerced = true
			}
		}
	case []any:
		if len(v) != 3 {
			return outcome{}, false
		}
		var chans [3]float64
		for i, x := range v {
			n, _, ok := number(x)
			if !ok {
				return outcome{}, false
			}
			chans[i] = n
		}
		c = schema.Color{R: chans[0], G: chans[1], B: chans[2]}
		coerced = true
	case string:
		parsed, ok := parseHexColor(v)
		if !ok {
			return outcome{}, false
		}
		c = parsed
		coerced = true
	default:
		return outcome{}, false
	}

	clamped := schema.Color{R: unitClamp(c.R), G: unitClamp(c.G), B: unitClamp(c.B)}
	switch {
	case clamped != c:
		return adjusted(clamped, world.AdjustClamped), true
	case coerced:
		return adjusted(clamped, world.AdjustCoerced), true
	}
	return accepted(clamped), true
}

func channel(m map[string]any, def float64, keys ...string) float64 {
	for _, k := range keys {
		if x, ok := m[k]; ok {
			if n, _, ok := number(x); ok {
				return n
			}
			return def
		}
	}
	return def
}

func parseHexColor(s string) (schema.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return schema.Color{}, false
	}
	var chans [3]float64
	for i := range chans {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return schema.Color{}, false
		}
		chans[i] = float64(v) / 255
	}
	return schema.Color{R: chans[0], G: chans[1], B: chans[2]}, true
}

func unitClamp(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}

func normalizeString(raw any) (outcome, bool) {
	switch v := raw.(type) {
	case string:
		return accepted(v), true
	case float64:
		return adjusted(strconv.FormatFloat(v, 'f', -1, 64), world.AdjustCoerced), true
	case bool:
		return adjusted(strconv.FormatBool(v), world.AdjustCoerced), true
	}
	return outcome{}, false
}

func withKind(v any, coerced bool) outcome {
	if coerced {
		return adjusted(v, world.AdjustCoerced)
	}
	return accepted(v)
}

// Package extract turns raw oracle text into a candidate document.
// All functions are pure - no side effects.
package extract

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/easyworld/worldgen/domain/world"
)

// Renderer keys read from a candidate document.
const (
	KeyTerrains   = "terrainsData"
	KeyTerrain    = "terrainData"
	KeyHeights    = "heightsGeneratorData"
	KeyTextures   = "texturesGeneratorDataList"
	KeyTrees      = "treeGeneratorData"
	KeyGrass      = "grassGeneratorData"
	KeyWater      = "waterGeneratorData"
	KeyObjects    = "objectList"
	KeyAtmosphere = "atmosphereGeneratorData"
	KeyDayNight   = "dayNightGeneratorData"
	KeyCity       = "cityData"
)

// Extract parses the oracle reply. Code fences are stripped; when the reply is not
// a JSON object by itself, embedded {...} spans are tried. Failures are
// *world.ExtractionError carrying the raw text.
func Extract(raw string) (Document, error) {
	text := stripCodeFences(raw)
	if text == "" {
		return nil, &world.ExtractionError{Reason: "empty response", Raw: raw}
	}

	doc, err := decodeObject(text)
	if err == nil {
		return doc, nil
	}
	var notObject notObjectError
	if errors.As(err, &notObject) {
		return nil, &world.ExtractionError{Reason: err.Error(), Raw: raw}
	}

	// Prose around the JSON: try each balanced {...} span in turn.
	for from := 0; from < len(text); {
		start, span := balancedObject(text, from)
		if span == "" {
			break
		}
		if doc, spanErr := decodeObject(span); spanErr == nil {
			return doc, nil
		}
		from = start + 1
	}
	return nil, &world.ExtractionError{Reason: err.Error(), Raw: raw}
}

type notObjectError struct{ got string }

func (e notObjectError) Error() string {
	return "top-level value is " + e.got + ", want object"
}

func decodeObject(text string) (Document, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return Document(t), nil
	case []any:
		return nil, notObjectError{"array"}
	case nil:
		return nil, notObjectError{"null"}
	default:
		return nil, notObjectError{"scalar"}
	}
}

// stripCodeFences removes a leading ``` or ```json line and a trailing ``` fence.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	nl := strings.Index(trimmed, "\n")
	if nl == -1 {
		// Single line: ```json {...}```
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(trimmed, "json")
		return strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}

	body := trimmed[nl+1:]
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// balancedObject returns the first balanced {...} span starting at or after from,
// ignoring braces inside JSON strings, and its start offset. The span is "" when
// none exists.
func balancedObject(s string, from int) (int, string) {
	rel := strings.Index(s[from:], "{")
	if rel == -1 {
		return -1, ""
	}
	start := from + rel

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start, s[start : i+1]
			}
		}
	}
	return start, ""
}

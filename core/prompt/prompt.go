// Package prompt builds the oracle prompt from the schema registry.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/easyworld/worldgen/core/schema"
)

const preamble = `You are a terrain generation AI for a game. Based on the user's description,
return a JSON object with the parameters required to generate the world.
Keep every value inside the ranges below.

If the description contains several kinds of terrain (for example "mountain" and "flat grassland"),
return one entry in terrainsData for each of them. Every terrain has its own heights, textures,
tree, grass and water data.

Deserts and snowfields have no trees or grass unless the user asks for them: use the "off" value.
If the user says not to add something (trees, grass, water, objects, fog, a city), use its "off"
value, or an empty list for objects.
Only include cityData when the user asks for a city or a town.
`

const shape = `Return only JSON in this shape:
{
  "terrainsData": [
    {
      "heightsGeneratorData": {...},
      "texturesGeneratorDataList": [{...}],
      "treeGeneratorData": {...},
      "grassGeneratorData": {...},
      "waterGeneratorData": {...}
    }
  ],
  "objectList": [{...}],
  "atmosphereGeneratorData": {...},
  "cityData": {...}
}
`

// Builder renders prompts for one registry.
type Builder struct {
	guidelines string
}

// NewBuilder renders the module guidelines once.
func NewBuilder(reg *schema.Registry) *Builder {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\nUse the following guidelines for each module:\n")
	for _, mod := range reg.Modules() {
		writeModule(&b, mod)
	}
	b.WriteString("\n")
	b.WriteString(shape)
	return &Builder{guidelines: b.String()}
}

// Build returns the full prompt for a description.
func (b *Builder) Build(description string) string {
	var sb strings.Builder
	sb.Grow(len(b.guidelines) + len(description) + 64)
	sb.WriteString(b.guidelines)
	sb.WriteString("\nUse the following description to generate appropriate values:\n")
	sb.WriteString(strconv.Quote(strings.TrimSpace(description)))
	sb.WriteString("\n")
	return sb.String()
}

func writeModule(b *strings.Builder, mod schema.Module) {
	fmt.Fprintf(b, "\n%s", mod.Key)
	if mod.Repeated {
		b.WriteString(" (list, each entry has)")
	}
	b.WriteString(":\n")
	if mod.Description != "" {
		fmt.Fprintf(b, "  %s\n", mod.Description)
	}
	for _, f := range mod.Fields {
		fmt.Fprintf(b, "  - %s: %s\n", f.Name, describe(f))
	}
}

func describe(f schema.Field) string {
	var parts []string

	switch f.Type {
	case schema.FieldTypeInt, schema.FieldTypeFloat:
		kind := "float"
		if f.Type == schema.FieldTypeInt {
			kind = "integer"
		}
		lo, hi := f.Bounds()
		parts = append(parts, fmt.Sprintf("%s from %s to %s", kind, num(lo), num(hi)))
		if len(f.Levels) > 0 {
			levels := make([]string, len(f.Levels))
			for i, l := range f.Levels {
				levels[i] = num(l)
			}
			parts = append(parts, "one of "+strings.Join(levels, ", "))
		}
	case schema.FieldTypeBool:
		parts = append(parts, "boolean")
	case schema.FieldTypeEnum:
		parts = append(parts, "one of "+strings.Join(quoted(f.Values), ", "))
	case schema.FieldTypeColor:
		parts = append(parts, `color {"r", "g", "b"} each from 0 to 1`)
	case schema.FieldTypeString:
		parts = append(parts, "string")
	}

	if f.Required {
		parts = append(parts, "required")
	} else if f.Default != nil {
		parts = append(parts, "default "+value(f.Default))
	}
	if f.Off != nil {
		parts = append(parts, "off "+value(f.Off))
	}
	if f.Description != "" {
		parts = append(parts, f.Description)
	}
	return strings.Join(parts, "; ")
}

func value(v any) string {
	switch x := v.(type) {
	case float64:
		return num(x)
	case string:
		return strconv.Quote(x)
	case schema.Color:
		return fmt.Sprintf(`{"r": %s, "g": %s, "b": %s}`, num(x.R), num(x.G), num(x.B))
	}
	return fmt.Sprint(v)
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func quoted(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Quote(v)
	}
	return out
}

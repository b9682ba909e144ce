package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a module definition from a YAML file.
func ParseFile(path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Module{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a module definition from YAML bytes.
func Parse(data []byte) (Module, error) {
	var mod Module
	if err := yaml.Unmarshal(data, &mod); err != nil {
		return Module{}, fmt.Errorf("parse yaml: %w", err)
	}

	for i := range mod.Fields {
		mod.Fields[i] = normalizeField(mod.Fields[i])
	}

	if err := Validate(mod); err != nil {
		return Module{}, fmt.Errorf("validate module %q: %w", mod.Kind, err)
	}

	return mod, nil
}

// ParseDir parses all module definitions from a directory.
func ParseDir(dir string) ([]Module, error) {
	return ParseFS(os.DirFS(dir), ".")
}

// ParseFS parses all module definitions below dir in fsys, including subdirectories.
func ParseFS(fsys fs.FS, dir string) ([]Module, error) {
	var modules []Module

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		p := path.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseFS(fsys, p)
			if err != nil {
				return nil, err
			}
			modules = append(modules, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", p, err)
		}

		mod, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}

		modules = append(modules, mod)
	}

	return modules, nil
}

// Validate validates a module definition. Every problem is reported as a
// *SchemaError; several problems are joined.
func Validate(mod Module) error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &SchemaError{Module: mod.Kind, Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if mod.Kind == "" {
		fail("", "module kind is required")
	}
	if mod.Key == "" {
		fail("", "renderer key is required")
	}
	if len(mod.Fields) == 0 {
		fail("", "module must have at least one field")
	}

	seen := make(map[string]bool, len(mod.Fields))
	required := 0
	for _, f := range mod.Fields {
		if f.Name == "" {
			fail("", "field name is required")
			continue
		}
		if seen[f.Name] {
			fail(f.Name, "duplicate field")
		}
		seen[f.Name] = true

		if f.Required {
			required++
			if !mod.Repeated {
				fail(f.Name, "required fields are only valid in repeated modules")
			}
		}

		for _, reason := range validateField(f) {
			fail(f.Name, "%s", reason)
		}
	}
	if required > 1 {
		fail("", "at most one required field, got %d", required)
	}

	if len(mod.Unique) > 0 && !mod.Repeated {
		fail("", "unique is only valid in repeated modules")
	}
	for _, name := range mod.Unique {
		if !seen[name] {
			fail(name, "unique names an unknown field")
		}
	}

	return errors.Join(errs...)
}

// validateField returns the consistency problems of one field.
func validateField(f Field) []string {
	if !isValidFieldType(f.Type) {
		return []string{fmt.Sprintf("unknown type %q", f.Type)}
	}

	var problems []string

	if f.Type == FieldTypeEnum && len(f.Values) == 0 {
		problems = append(problems, "enum type requires values")
	}

	if f.Min != nil || f.Max != nil || len(f.Levels) > 0 {
		if !f.IsNumeric() {
			problems = append(problems, "bounds and levels are only valid on numeric fields")
		}
	}

	lo, hi := f.Bounds()
	if lo > hi {
		problems = append(problems, fmt.Sprintf("min %v greater than max %v", lo, hi))
	}

	if f.Step < 0 {
		problems = append(problems, "step must not be negative")
	}

	for _, l := range f.Levels {
		if l < lo || l > hi {
			problems = append(problems, fmt.Sprintf("level %v outside [%v, %v]", l, lo, hi))
		}
	}
	if len(f.Levels) > 0 && f.Type != FieldTypeFloat {
		problems = append(problems, "levels require a float field")
	}

	// Required entries have no default; anything else must default in domain.
	if f.Default == nil {
		if !f.Required {
			problems = append(problems, "default is required")
		}
	} else if !inDomain(f, f.Default) {
		problems = append(problems, fmt.Sprintf("default %v is outside the domain", f.Default))
	}

	if f.Off != nil && !offTyped(f) {
		problems = append(problems, fmt.Sprintf("off value %v does not match type %s", f.Off, f.Type))
	}

	return problems
}

// inDomain checks a value against the field domain ignoring the Off sentinel.
func inDomain(f Field, v any) bool {
	g := f
	g.Off = nil
	return g.Allows(v)
}

func offTyped(f Field) bool {
	switch f.Type {
	case FieldTypeInt:
		_, ok := f.Off.(int)
		return ok
	case FieldTypeFloat:
		_, ok := f.Off.(float64)
		return ok
	case FieldTypeBool:
		_, ok := f.Off.(bool)
		return ok
	case FieldTypeEnum:
		s, ok := f.Off.(string)
		return ok && slices.Contains(f.Values, s)
	case FieldTypeColor:
		_, ok := f.Off.(Color)
		return ok
	case FieldTypeString:
		_, ok := f.Off.(string)
		return ok
	}
	return false
}

// normalizeField converts YAML-decoded scalars into the canonical Go type of
// the field: int for int fields, float64 for float fields, Color for colors.
func normalizeField(f Field) Field {
	f.Default = canonical(f.Type, f.Default)
	f.Off = canonical(f.Type, f.Off)
	return f
}

func canonical(t FieldType, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case FieldTypeInt:
		switch n := v.(type) {
		case int:
			return n
		case float64:
			if n == math.Trunc(n) {
				return int(n)
			}
		}
	case FieldTypeFloat:
		switch n := v.(type) {
		case int:
			return float64(n)
		case float64:
			return n
		}
	case FieldTypeColor:
		switch c := v.(type) {
		case Color:
			return c
		case map[string]any:
			return Color{R: channel(c["r"]), G: channel(c["g"]), B: channel(c["b"])}
		}
	}
	return v
}

func channel(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}

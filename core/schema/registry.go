package schema

import (
	"embed"
	"fmt"
	"sync"
)

//go:embed defs/*.yaml
var defs embed.FS

// Registry is an immutable set of module definitions keyed by kind.
type Registry struct {
	modules map[Kind]Module
	order   []Kind
}

// NewRegistry builds a registry. Every module must validate and kinds must be unique.
func NewRegistry(mods ...Module) (*Registry, error) {
	r := &Registry{modules: make(map[Kind]Module, len(mods))}
	for _, m := range mods {
		if err := Validate(m); err != nil {
			return nil, err
		}
		if _, dup := r.modules[m.Kind]; dup {
			return nil, &SchemaError{Module: m.Kind, Reason: "duplicate module"}
		}
		r.modules[m.Kind] = m.clone()
	}

	// Known kinds first in renderer order, then anything else in declaration order.
	for _, k := range Kinds {
		if _, ok := r.modules[k]; ok {
			r.order = append(r.order, k)
		}
	}
	for _, m := range mods {
		if !isKnownKind(m.Kind) {
			r.order = append(r.order, m.Kind)
		}
	}
	return r, nil
}

// SchemaFor returns the definition of kind.
func (r *Registry) SchemaFor(kind Kind) (Module, error) {
	m, ok := r.modules[kind]
	if !ok {
		return Module{}, &SchemaError{Module: kind, Reason: "unknown module"}
	}
	return m.clone(), nil
}

// MustSchemaFor is SchemaFor that panics on unknown kinds.
func (r *Registry) MustSchemaFor(kind Kind) Module {
	m, err := r.SchemaFor(kind)
	if err != nil {
		panic(err)
	}
	return m
}

// Modules returns every definition in renderer order.
func (r *Registry) Modules() []Module {
	out := make([]Module, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.modules[k].clone())
	}
	return out
}

// ByKey resolves a renderer key or alias to its module.
func (r *Registry) ByKey(key string) (Module, bool) {
	for _, k := range r.order {
		m := r.modules[k]
		if m.Key == key {
			return m.clone(), true
		}
		for _, a := range m.Aliases {
			if a == key {
				return m.clone(), true
			}
		}
	}
	return Module{}, false
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in registry parsed from the embedded definitions.
// A broken built-in definition panics on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		mods, err := ParseFS(defs, "defs")
		if err != nil {
			panic(fmt.Sprintf("schema: built-in definitions: %v", err))
		}
		reg, err := NewRegistry(mods...)
		if err != nil {
			panic(fmt.Sprintf("schema: built-in registry: %v", err))
		}
		for _, k := range Kinds {
			if _, ok := reg.modules[k]; !ok {
				panic(fmt.Sprintf("schema: built-in registry is missing module %q", k))
			}
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

func isKnownKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

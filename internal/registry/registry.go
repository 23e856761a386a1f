// Package registry holds the immutable name-to-Module map populated once at
// startup, per spec.md §3's "Module registry".
package registry

import (
	"fmt"
	"sort"

	"github.com/relayforge/nodeagent/internal/moduleapi"
)

// Registry is a read-only, concurrency-safe-by-construction map of module
// name to Module. It is built once via NewFromModules and never mutated
// afterward — no dynamic add/remove once the agent begins serving.
type Registry struct {
	modules map[string]moduleapi.Module
}

// NewFromModules builds a Registry from a slice of modules. Duplicate names
// are rejected rather than silently overwritten.
func NewFromModules(modules []moduleapi.Module) (*Registry, error) {
	m := make(map[string]moduleapi.Module, len(modules))
	for _, mod := range modules {
		if _, exists := m[mod.Name()]; exists {
			return nil, fmt.Errorf("duplicate module name %q", mod.Name())
		}
		m[mod.Name()] = mod
	}
	return &Registry{modules: m}, nil
}

// Lookup returns the module registered under name, if any.
func (r *Registry) Lookup(name string) (moduleapi.Module, bool) {
	mod, ok := r.modules[name]
	return mod, ok
}

// Names returns the registered module names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package provider

import (
	"fmt"
	"strings"
)

// Factory constructs a provider instance.
type Factory func() Provider

// Registry maps provider names to factories, preserving registration order
// for listing. Populate it during process initialization; lookups are
// read-only afterwards. Get builds a fresh instance per call so concurrent
// callers never share mutable provider state.
type Registry struct {
	names       []string
	factories   map[string]Factory
	descriptors map[string]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:   make(map[string]Factory),
		descriptors: make(map[string]Descriptor),
	}
}

// Register probes the factory for its descriptor and adds it under the
// descriptor name. Duplicate or empty names are rejected.
func (r *Registry) Register(factory Factory) error {
	if factory == nil {
		return fmt.Errorf("register provider: nil factory")
	}
	instance := factory()
	if instance == nil {
		return fmt.Errorf("register provider: factory returned nil")
	}
	descriptor := instance.Describe()
	name := strings.TrimSpace(descriptor.Name)
	if name == "" {
		return fmt.Errorf("register provider: descriptor has no name")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("register provider: duplicate name %q", name)
	}
	r.names = append(r.names, name)
	r.factories[name] = factory
	r.descriptors[name] = descriptor
	return nil
}

// List returns every registered descriptor in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Describe returns the descriptor registered under name without building an
// instance. The boolean is false for unknown names.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	descriptor, ok := r.descriptors[name]
	return descriptor, ok
}

// Get builds a new provider instance for name. Each call returns a separate
// instance; configuring one never affects another in flight. The boolean is
// false for unknown names; callers must not ignore it.
func (r *Registry) Get(name string) (Provider, bool) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

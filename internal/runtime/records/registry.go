package records

import (
	"fmt"
	"slices"
	"sync"
)

// Factory returns a fresh, zero-valued record ready to be decoded into.
type Factory func() Record

// Registry maps element names to record kinds.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows every record kind this module ships with.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(TagPlayerRegistration, func() Record { return &PlayerRegistration{} })
	return r
}

// Register adds a kind under tag. Tags are unique.
func (r *Registry) Register(tag string, factory Factory) error {
	if tag == "" {
		return fmt.Errorf("records: tag is required")
	}
	if factory == nil {
		return fmt.Errorf("records: factory for %q is nil", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[tag]; exists {
		return fmt.Errorf("records: tag %q already registered", tag)
	}
	r.factories[tag] = factory
	return nil
}

func (r *Registry) Lookup(tag string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[tag]
	return factory, ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

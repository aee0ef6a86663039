// Package registry maps channel names to implementations so chains can be
// ordered from configuration.
package registry

import (
	"sort"

	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/ports"
)

// Registry keeps a mapping from channel names to their implementations.
type Registry[T ports.Channel] struct {
	channels map[string]T
}

// New builds a registry holding channels.
func New[T ports.Channel](channels ...T) *Registry[T] {
	r := &Registry[T]{channels: map[string]T{}}
	for _, ch := range channels {
		r.Register(ch)
	}
	return r
}

// Register adds or replaces a channel implementation.
func (r *Registry[T]) Register(ch T) {
	if r.channels == nil {
		r.channels = map[string]T{}
	}
	r.channels[ch.Name()] = ch
}

// Resolve returns a channel by name or an error if it is absent.
func (r *Registry[T]) Resolve(name string) (T, error) {
	if ch, ok := r.channels[name]; ok {
		return ch, nil
	}
	var zero T
	return zero, errors.WithHintf(
		errors.Newf("channel %s is not registered", name),
		"known channels: %v", r.Names(),
	)
}

// Chain resolves names in order. Duplicates keep their first position.
func (r *Registry[T]) Chain(names []string) ([]T, error) {
	seen := map[string]bool{}
	chain := make([]T, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		ch, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, ch)
	}
	return chain, nil
}

// Names lists the registered channel names, sorted.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package backend defines the scoring backend contract and the registry
// the orchestrator draws backends from. Every backend invocation passes
// through a boundary that converts errors, panics, and timeouts into
// degraded results so callers never see a failing backend directly.
package backend

import (
	"context"
	"fmt"
	"sort"

	"github.com/sqllens/sqllens/internal/core"
)

// Backend scores a single code unit.
type Backend interface {
	Name() string
	Evaluate(ctx context.Context, unit core.CodeUnit) (*core.BackendResult, error)
}

// Registry holds the constructed backends for one process. It is built
// explicitly at startup and injected where needed; there is no ambient
// global registry.
type Registry struct {
	order    []string
	backends map[string]Backend
	fallback string
}

// NewRegistry creates an empty registry. The fallback backend is used
// when a caller enables no backends at all.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		fallback: fallback,
	}
}

// Register adds a backend. Names must be unique.
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return fmt.Errorf("backend is required")
	}
	name := b.Name()
	if name == "" {
		return fmt.Errorf("backend name is required")
	}
	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend already registered: %s", name)
	}
	r.backends[name] = b
	r.order = append(r.order, name)
	return nil
}

// Get returns the named backend.
func (r *Registry) Get(name string) (Backend, bool) {
	if r == nil {
		return nil, false
	}
	b, ok := r.backends[name]
	return b, ok
}

// Names returns registered backend names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Fallback returns the name of the default backend.
func (r *Registry) Fallback() string {
	if r == nil {
		return ""
	}
	return r.fallback
}

// Resolve normalizes an enabled-backend set: unknown names are kept (the
// boundary degrades them), duplicates are dropped, and an empty set is
// replaced with the fallback backend.
func (r *Registry) Resolve(enabled []string) []string {
	seen := make(map[string]struct{}, len(enabled))
	resolved := make([]string, 0, len(enabled))
	for _, name := range enabled {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		resolved = append(resolved, name)
	}

	if len(resolved) == 0 && r.fallback != "" {
		resolved = append(resolved, r.fallback)
	}
	return resolved
}

// SortedNames returns registered backend names sorted alphabetically,
// for stable display output.
func (r *Registry) SortedNames() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}

package platform

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps platform keys to adapters. Adapters are registered once at
// startup; lookups happen per job.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its key.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := a.Key()
	if key == "" {
		return fmt.Errorf("platform: adapter has empty key")
	}
	if _, exists := r.adapters[key]; exists {
		return fmt.Errorf("platform: adapter %q already registered", key)
	}
	r.adapters[key] = a
	return nil
}

// Get returns the adapter for a key.
func (r *Registry) Get(key string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[key]
	if !ok {
		return nil, fmt.Errorf("platform: unknown platform %q (supported: %v)", key, r.keysLocked())
	}
	return a, nil
}

// Keys returns all registered platform keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keysLocked()
}

func (r *Registry) keysLocked() []string {
	keys := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

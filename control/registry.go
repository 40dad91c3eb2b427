// control/registry.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters for reactor introspection.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"
)

// Registry holds mutable and read-only runtime counters.
type Registry struct {
	mu      sync.RWMutex
	values  map[string]int64
	updated time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		values: make(map[string]int64),
	}
}

// Add increments a counter key by delta.
func (r *Registry) Add(key string, delta int64) {
	r.mu.Lock()
	r.values[key] += delta
	r.updated = time.Now()
	r.mu.Unlock()
}

// Set sets or updates a counter key.
func (r *Registry) Set(key string, value int64) {
	r.mu.Lock()
	r.values[key] = value
	r.updated = time.Now()
	r.mu.Unlock()
}

// Get returns a single counter value.
func (r *Registry) Get(key string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[key]
}

// Snapshot returns the latest counters.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int64, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

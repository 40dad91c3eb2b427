// File: internal/listener/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listener

import (
	"log"

	"github.com/momentics/hioload-reactor/api"
)

// Registry maps keys to listener sets. The raw hook for a key is
// attached on the 0->1 subscriber transition and detached on 1->0;
// descriptors released lazily this way are never swept eagerly. The
// attach hook installs the single raw callback for a key with the
// owning backend and returns the cancel tearing the OS watch down.
type Registry[K comparable] struct {
	sets   map[K]*Set
	attach func(key K, cb api.Task) (api.Cancel, error)
}

// NewRegistry creates an empty registry over the given raw hook.
func NewRegistry[K comparable](attach func(key K, cb api.Task) (api.Cancel, error)) *Registry[K] {
	return &Registry[K]{
		sets:   make(map[K]*Set),
		attach: attach,
	}
}

// Subscribe adds cb under key, attaching the raw hook when the key was
// previously unwatched. The returned cancel removes only this
// subscriber; removing the last one detaches the raw hook. Cancelling
// the same subscription twice is a protocol-misuse fault.
func (r *Registry[K]) Subscribe(key K, cb api.Task) (api.Cancel, error) {
	s, ok := r.sets[key]
	if !ok {
		var raw api.Cancel
		s = NewSet(func() {
			delete(r.sets, key)
			if raw != nil {
				if err := raw(); err != nil {
					log.Printf("[listener] error: detach failed: %v", err)
				}
			}
		})
		var err error
		raw, err = r.attach(key, s.Invoke)
		if err != nil {
			return nil, err
		}
		r.sets[key] = s
	}
	id, err := s.Subscribe(cb)
	if err != nil {
		return nil, err
	}
	return func() error { return s.Remove(id) }, nil
}

// Active returns the number of keys currently watched.
func (r *Registry[K]) Active() int {
	return len(r.sets)
}

// File: internal/listener/set.go
// Package listener implements the shared subscriber-collection logic
// layered over raw backend hooks, so every backend gets identical
// multi-subscriber and auto-teardown behavior.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listener

import (
	"log"

	"github.com/momentics/hioload-reactor/api"
)

type entry struct {
	id int
	cb api.Task
}

// Set is an ordered collection of subscriber callbacks for one key
// (stream+direction, or signal number). The instant it becomes empty it
// detaches from its owner and cannot accept new subscribers afterwards.
type Set struct {
	entries []entry
	nextID  int
	closed  bool
	onEmpty func()
}

// NewSet creates a set that calls onEmpty exactly once when its last
// subscriber is removed.
func NewSet(onEmpty func()) *Set {
	return &Set{onEmpty: onEmpty}
}

// Subscribe appends cb and returns its subscription index.
func (s *Set) Subscribe(cb api.Task) (int, error) {
	if s.closed {
		return 0, api.NewError(api.ErrCodeProtocolMisuse,
			"listener set already detached")
	}
	id := s.nextID
	s.nextID++
	s.entries = append(s.entries, entry{id: id, cb: cb})
	return id, nil
}

// Remove deletes the subscription with the given index. Removing an
// index twice is a protocol-misuse fault. Emptying the set triggers the
// onEmpty hook synchronously and closes the set.
func (s *Set) Remove(id int) error {
	for i := range s.entries {
		if s.entries[i].id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			if len(s.entries) == 0 && !s.closed {
				s.closed = true
				if s.onEmpty != nil {
					s.onEmpty()
				}
			}
			return nil
		}
	}
	return api.Errorf(api.ErrCodeProtocolMisuse,
		"listener %d already removed", id)
}

// Len returns the current subscriber count.
func (s *Set) Len() int {
	return len(s.entries)
}

// Invoke calls every current subscriber once, each under its own error
// boundary. Iteration runs over a snapshot, so callbacks may subscribe
// or unsubscribe — themselves or siblings — while the set is being
// invoked.
func (s *Set) Invoke() {
	snapshot := make([]entry, len(s.entries))
	copy(snapshot, s.entries)
	for _, e := range snapshot {
		invokeGuarded(e.cb)
	}
}

func invokeGuarded(cb api.Task) {
	defer func() {
		if cause := recover(); cause != nil {
			log.Printf("[listener] error: subscriber panic (%T): %v", cause, cause)
		}
	}()
	cb()
}

// File: api/backend.go
// Package api defines the backend SPI for alternate reactor implementations.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Backend is the minimal SPI an event-loop implementation must provide.
// The raw listener hooks carry exactly one callback per stream+direction
// or signal number; the shared listener registry wraps them so every
// backend gets identical multi-subscriber and auto-teardown behavior.
type Backend interface {
	// Defer appends task to the backend's task queue.
	Defer(task Task)

	// Run ticks until no work or registrations remain.
	Run() error

	// Drain ticks until done() is true; it must return once the predicate
	// holds and never block past it.
	Drain(done DonePredicate) error

	// IsDraining reports whether a Drain call is in progress.
	IsDraining() bool

	// Terminate requests shutdown at the next tick boundary.
	Terminate(exitCode int)

	// AddReadListener installs cb as the sole read-readiness callback for
	// stream. The returned cancel tears the OS watch down.
	AddReadListener(stream Stream, cb Task) (Cancel, error)

	// AddWriteListener installs cb as the sole write-readiness callback
	// for stream.
	AddWriteListener(stream Stream, cb Task) (Cancel, error)

	// AddSignalListener installs cb as the sole handler for sig,
	// replacing the default disposition until cancelled.
	AddSignalListener(sig Signal, cb Task) (Cancel, error)
}

// File: api/reactor.go
// Package api defines the event reactor contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Reactor multiplexes deferred tasks, timers, stream readiness and OS
// signal delivery into one ordered, cooperatively scheduled execution
// stream. Callbacks never run in parallel: apparent concurrency is
// interleaving at tick boundaries only.

package api

import "time"

// Task is an identity-less zero-argument unit of work. The queue owns it
// until executed.
type Task func()

// Cancel revokes a prior subscription or scheduled timer. Timer cancels
// are idempotent; removing a stream or signal listener twice is a
// protocol-misuse fault.
type Cancel func() error

// DonePredicate reports whether a drain call may return.
type DonePredicate func() bool

// Reactor is the full event-loop contract, implemented by the native
// reactor and by adapters proxying to external event loops.
type Reactor interface {
	// Defer appends task to the tail of the task queue for the next tick.
	Defer(task Task)

	// SetTimeout schedules cb to run once, no earlier than delay from now
	// and within one polling granularity after it. Fails with an
	// invalid-argument fault when delay <= 0.
	SetTimeout(cb Task, delay time.Duration) (Cancel, error)

	// SetInterval schedules cb to run repeatedly every interval, with
	// catch-up semantics: a stall yields one fire and a jump to the next
	// deadline, never a backlog of fires.
	SetInterval(cb Task, interval time.Duration) (Cancel, error)

	// OnReadable registers cb for read readiness of stream. The OS-level
	// watch exists while at least one subscriber remains.
	OnReadable(stream Stream, cb Task) (Cancel, error)

	// OnWritable registers cb for write readiness of stream.
	OnWritable(stream Stream, cb Task) (Cancel, error)

	// OnSignal registers cb for deliveries of the given OS signal. The
	// process-level handler is installed on the first subscriber and the
	// default disposition restored when the last one is removed.
	OnSignal(sig Signal, cb Task) (Cancel, error)

	// Run ticks until the task queue, stream registrations and signal
	// registrations are jointly empty, or Terminate is observed.
	Run() error

	// Drain ticks until done() reports true. It returns a protocol-misuse
	// fault when invoked re-entrantly, and fails fast when a tick performs
	// no work and nothing registered could ever complete the predicate.
	Drain(done DonePredicate) error

	// IsDraining reports whether a Drain call is in progress.
	IsDraining() bool

	// Terminate requests shutdown with the given exit code. It takes
	// effect at the next tick boundary, never mid-callback; installed
	// signal handlers revert to their default disposition.
	Terminate(exitCode int)
}

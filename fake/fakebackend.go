// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides an in-memory backend SPI implementation for
// exercising the adapter and facade layers without OS descriptors or
// real signals.
package fake

import (
	"github.com/momentics/hioload-reactor/api"
)

// Backend is a test/dummy backend. Readiness and signal delivery are
// driven explicitly through FireReadable, FireWritable and FireSignal.
type Backend struct {
	tasks    []api.Task
	reads    map[uintptr]api.Task
	writes   map[uintptr]api.Task
	sigs     map[api.Signal]api.Task
	draining bool

	Terminated bool
	ExitCode   int
	TicksRun   int
}

var _ api.Backend = (*Backend)(nil)

// NewBackend creates an empty fake backend.
func NewBackend() *Backend {
	return &Backend{
		reads:  make(map[uintptr]api.Task),
		writes: make(map[uintptr]api.Task),
		sigs:   make(map[api.Signal]api.Task),
	}
}

// Defer appends task to the internal queue.
func (b *Backend) Defer(task api.Task) {
	b.tasks = append(b.tasks, task)
}

// Pending returns the number of queued tasks.
func (b *Backend) Pending() int { return len(b.tasks) }

// RunOnce executes exactly the tasks queued at call time.
func (b *Backend) RunOnce() int {
	n := len(b.tasks)
	batch := b.tasks[:n]
	b.tasks = b.tasks[n:]
	for _, t := range batch {
		t()
	}
	b.TicksRun++
	return n
}

// Run executes queued tasks until none remain or Terminate is seen.
func (b *Backend) Run() error {
	for len(b.tasks) > 0 && !b.Terminated {
		b.RunOnce()
	}
	return nil
}

// Drain runs ticks until done reports true or a tick does nothing.
func (b *Backend) Drain(done api.DonePredicate) error {
	if b.draining {
		return api.NewError(api.ErrCodeProtocolMisuse, "drain already in progress")
	}
	b.draining = true
	defer func() { b.draining = false }()
	for {
		if done() {
			return nil
		}
		if b.Terminated {
			return nil
		}
		if b.RunOnce() == 0 {
			return api.NewError(api.ErrCodeProtocolMisuse,
				"drain on an idle backend")
		}
		if done() {
			return nil
		}
	}
}

// IsDraining reports whether a Drain call is in progress.
func (b *Backend) IsDraining() bool { return b.draining }

// Terminate latches the terminated flag and exit code.
func (b *Backend) Terminate(exitCode int) {
	b.Terminated = true
	b.ExitCode = exitCode
}

// AddReadListener installs the sole read callback for stream.
func (b *Backend) AddReadListener(stream api.Stream, cb api.Task) (api.Cancel, error) {
	return addSlot(b.reads, stream.Fd(), cb)
}

// AddWriteListener installs the sole write callback for stream.
func (b *Backend) AddWriteListener(stream api.Stream, cb api.Task) (api.Cancel, error) {
	return addSlot(b.writes, stream.Fd(), cb)
}

// AddSignalListener installs the sole handler for sig.
func (b *Backend) AddSignalListener(sig api.Signal, cb api.Task) (api.Cancel, error) {
	return addSlot(b.sigs, sig, cb)
}

func addSlot[K comparable](slots map[K]api.Task, key K, cb api.Task) (api.Cancel, error) {
	if _, ok := slots[key]; ok {
		return nil, api.NewError(api.ErrCodeProtocolMisuse, "listener already installed")
	}
	slots[key] = cb
	removed := false
	return func() error {
		if removed {
			return api.NewError(api.ErrCodeProtocolMisuse, "listener already removed")
		}
		removed = true
		delete(slots, key)
		return nil
	}, nil
}

// HasReadListener reports whether a raw read watch exists for fd.
func (b *Backend) HasReadListener(fd uintptr) bool {
	_, ok := b.reads[fd]
	return ok
}

// HasSignalListener reports whether a raw handler exists for sig.
func (b *Backend) HasSignalListener(sig api.Signal) bool {
	_, ok := b.sigs[sig]
	return ok
}

// FireReadable invokes the raw read callback for fd, if any.
func (b *Backend) FireReadable(fd uintptr) {
	if cb, ok := b.reads[fd]; ok {
		cb()
	}
}

// FireWritable invokes the raw write callback for fd, if any.
func (b *Backend) FireWritable(fd uintptr) {
	if cb, ok := b.writes[fd]; ok {
		cb()
	}
}

// FireSignal invokes the raw handler for sig, if any.
func (b *Backend) FireSignal(sig api.Signal) {
	if cb, ok := b.sigs[sig]; ok {
		cb()
	}
}

// Stream is a descriptor-only stream stand-in.
type Stream uintptr

// Fd returns the wrapped descriptor number.
func (s Stream) Fd() uintptr { return uintptr(s) }

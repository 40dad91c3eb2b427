// File: adapters/reactor_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ReactorAdapter lifts any backend SPI implementation to the full
// reactor contract: timers derived from Defer, and multi-subscriber
// listener sets with auto-teardown layered over the raw listener
// hooks. The native backend and external-loop backends get identical
// behavior through this one wrapper.

package adapters

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/internal/concurrency"
	"github.com/momentics/hioload-reactor/internal/listener"
)

type streamDirKey struct {
	fd  uintptr
	dir api.Direction
}

// ReactorAdapter implements api.Reactor over an api.Backend.
type ReactorAdapter struct {
	backend api.Backend
	timers  *concurrency.TimerScheduler
	streams *listener.Registry[streamDirKey]
	signals *listener.Registry[api.Signal]

	// handles remembers the stream for a key so the 0->1 attach can
	// reach the raw hook; entries drop when the watch detaches.
	handles map[streamDirKey]api.Stream
}

// Ensure compliance with the reactor contract.
var _ api.Reactor = (*ReactorAdapter)(nil)

// NewReactorAdapter wraps backend, reading timer deadlines from clk.
func NewReactorAdapter(backend api.Backend, clk clock.Clock) *ReactorAdapter {
	if clk == nil {
		clk = clock.New()
	}
	a := &ReactorAdapter{
		backend: backend,
		timers:  concurrency.NewTimerScheduler(clk, backend.Defer),
		handles: make(map[streamDirKey]api.Stream),
	}
	a.streams = listener.NewRegistry(a.attachStream)
	a.signals = listener.NewRegistry(a.attachSignal)
	return a
}

// attachStream installs the raw hook for a stream+direction on the
// first subscriber.
func (a *ReactorAdapter) attachStream(key streamDirKey, cb api.Task) (api.Cancel, error) {
	stream := a.handles[key]
	var raw api.Cancel
	var err error
	if key.dir == api.DirWrite {
		raw, err = a.backend.AddWriteListener(stream, cb)
	} else {
		raw, err = a.backend.AddReadListener(stream, cb)
	}
	if err != nil {
		return nil, err
	}
	return func() error {
		delete(a.handles, key)
		return raw()
	}, nil
}

// attachSignal installs the raw process-level handler on the first
// subscriber for a signal number.
func (a *ReactorAdapter) attachSignal(sig api.Signal, cb api.Task) (api.Cancel, error) {
	return a.backend.AddSignalListener(sig, cb)
}

// Defer appends task to the backend's queue.
func (a *ReactorAdapter) Defer(task api.Task) {
	a.backend.Defer(task)
}

// SetTimeout schedules a one-shot timer.
func (a *ReactorAdapter) SetTimeout(cb api.Task, delay time.Duration) (api.Cancel, error) {
	return a.timers.SetTimeout(cb, delay)
}

// SetInterval schedules a repeating timer.
func (a *ReactorAdapter) SetInterval(cb api.Task, interval time.Duration) (api.Cancel, error) {
	return a.timers.SetInterval(cb, interval)
}

// OnReadable subscribes cb to read readiness of stream.
func (a *ReactorAdapter) OnReadable(stream api.Stream, cb api.Task) (api.Cancel, error) {
	return a.subscribeStream(stream, api.DirRead, cb)
}

// OnWritable subscribes cb to write readiness of stream.
func (a *ReactorAdapter) OnWritable(stream api.Stream, cb api.Task) (api.Cancel, error) {
	return a.subscribeStream(stream, api.DirWrite, cb)
}

func (a *ReactorAdapter) subscribeStream(stream api.Stream, dir api.Direction, cb api.Task) (api.Cancel, error) {
	if stream == nil || cb == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil stream or callback")
	}
	key := streamDirKey{fd: stream.Fd(), dir: dir}
	a.handles[key] = stream
	return a.streams.Subscribe(key, cb)
}

// OnSignal subscribes cb to deliveries of sig.
func (a *ReactorAdapter) OnSignal(sig api.Signal, cb api.Task) (api.Cancel, error) {
	if cb == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil callback")
	}
	return a.signals.Subscribe(sig, cb)
}

// Run forwards to the backend.
func (a *ReactorAdapter) Run() error {
	return a.backend.Run()
}

// Drain forwards to the backend.
func (a *ReactorAdapter) Drain(done api.DonePredicate) error {
	return a.backend.Drain(done)
}

// IsDraining forwards to the backend.
func (a *ReactorAdapter) IsDraining() bool {
	return a.backend.IsDraining()
}

// Terminate forwards to the backend.
func (a *ReactorAdapter) Terminate(exitCode int) {
	a.backend.Terminate(exitCode)
}

// File: facade/facade.go
// Unified facade layer for hioload-reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package-level entry points over the process-wide lifecycle context.
// All mutable state lives inside the context; the facade only resolves
// it lazily on first use and applies the scheduling gate that fails
// closed once the shutdown grace period expires. Timer delays are
// accepted in seconds, matching the public contract.

package facade

import (
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/lifecycle"
)

// seconds converts a fractional-seconds delay to a duration.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Defer appends cb to the reactor's task queue for the next tick.
func Defer(cb api.Task) {
	lifecycle.Current().Reactor().Defer(cb)
}

// SetTimeout schedules cb once after the given number of seconds.
func SetTimeout(cb api.Task, secs float64) (api.Cancel, error) {
	ctx := lifecycle.Current()
	if err := ctx.EnsureSchedulable(); err != nil {
		return nil, err
	}
	return ctx.Reactor().SetTimeout(cb, seconds(secs))
}

// SetInterval schedules cb every given number of seconds.
func SetInterval(cb api.Task, secs float64) (api.Cancel, error) {
	ctx := lifecycle.Current()
	if err := ctx.EnsureSchedulable(); err != nil {
		return nil, err
	}
	return ctx.Reactor().SetInterval(cb, seconds(secs))
}

// OnReadable subscribes cb to read readiness of stream.
func OnReadable(stream api.Stream, cb api.Task) (api.Cancel, error) {
	ctx := lifecycle.Current()
	if err := ctx.EnsureSchedulable(); err != nil {
		return nil, err
	}
	return ctx.Reactor().OnReadable(stream, cb)
}

// OnWritable subscribes cb to write readiness of stream.
func OnWritable(stream api.Stream, cb api.Task) (api.Cancel, error) {
	ctx := lifecycle.Current()
	if err := ctx.EnsureSchedulable(); err != nil {
		return nil, err
	}
	return ctx.Reactor().OnWritable(stream, cb)
}

// OnSignal subscribes cb to deliveries of sig.
func OnSignal(sig api.Signal, cb api.Task) (api.Cancel, error) {
	ctx := lifecycle.Current()
	if err := ctx.EnsureSchedulable(); err != nil {
		return nil, err
	}
	return ctx.Reactor().OnSignal(sig, cb)
}

// Drain ticks the reactor until done reports true.
func Drain(done api.DonePredicate) error {
	return lifecycle.Current().Reactor().Drain(done)
}

// IsDraining reports whether a drain is in progress.
func IsDraining() bool {
	return lifecycle.Current().Reactor().IsDraining()
}

// Terminate requests shutdown with the given exit code at the next
// tick boundary.
func Terminate(exitCode int) {
	lifecycle.Current().Terminate(exitCode)
}

// Run drives the lifecycle to completion exactly once and returns the
// process exit code. Call it before main returns.
func Run() (int, error) {
	return lifecycle.Current().Finish()
}

// Stats returns runtime counters when the selected backend exposes
// them, nil otherwise.
func Stats() map[string]int64 {
	if b, ok := lifecycle.Current().Backend().(interface{ Stats() map[string]int64 }); ok {
		return b.Stats()
	}
	return nil
}

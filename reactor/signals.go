// File: reactor/signals.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// OS signal dispatcher. One process-level handler per signal number,
// installed on the 0->1 subscriber transition and restored to the
// default disposition on 1->0. The runtime buffers deliveries in a
// channel, so a signal arriving mid-callback is handled at the next
// tick boundary, never pre-emptively.

package reactor

import (
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/momentics/hioload-reactor/api"
)

type dispatcher struct {
	handlers map[api.Signal]api.Task
	ch       chan os.Signal
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		handlers: make(map[api.Signal]api.Task),
		// Sized for signal bursts between ticks; the kernel coalesces
		// standard signals anyway.
		ch: make(chan os.Signal, 64),
	}
}

// active returns the number of signal numbers with an installed handler.
func (d *dispatcher) active() int {
	return len(d.handlers)
}

// addListener installs cb as the sole handler for sig. Fan-out to
// multiple subscribers is provided by the listener registry above this
// raw hook.
func (d *dispatcher) addListener(sig api.Signal, cb api.Task) (api.Cancel, error) {
	if cb == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil callback")
	}
	if _, ok := d.handlers[sig]; ok {
		return nil, api.Errorf(api.ErrCodeProtocolMisuse,
			"signal %d already has a listener", sig)
	}
	d.handlers[sig] = cb
	signal.Notify(d.ch, sig)
	removed := false
	return func() error {
		if removed {
			return api.Errorf(api.ErrCodeProtocolMisuse,
				"signal %d listener already removed", sig)
		}
		removed = true
		signal.Reset(sig)
		delete(d.handlers, sig)
		return nil
	}, nil
}

// dispatchPending synchronously fans out every signal received since
// the previous tick, each handler under its own error boundary, and
// returns the number dispatched.
func (d *dispatcher) dispatchPending() int {
	dispatched := 0
	for {
		select {
		case s := <-d.ch:
			sig, ok := s.(api.Signal)
			if !ok {
				continue
			}
			cb, ok := d.handlers[sig]
			if !ok {
				// Listener removed after delivery was queued.
				continue
			}
			d.invoke(sig, cb)
			dispatched++
		default:
			return dispatched
		}
	}
}

func (d *dispatcher) invoke(sig api.Signal, cb api.Task) {
	defer func() {
		if cause := recover(); cause != nil {
			log.Printf("[signals] error: handler panic for signal %d (%T): %v", sig, cause, cause)
		}
	}()
	cb()
}

// waitPending parks on the delivery channel up to max, then fans out
// whatever arrived. Used by idle ticks so a reactor holding only
// signal subscriptions neither spins nor misses a prompt delivery.
func (d *dispatcher) waitPending(max time.Duration) int {
	select {
	case s := <-d.ch:
		dispatched := 0
		if sig, ok := s.(api.Signal); ok {
			if cb, ok := d.handlers[sig]; ok {
				d.invoke(sig, cb)
				dispatched++
			}
		}
		return dispatched + d.dispatchPending()
	case <-time.After(max):
		return 0
	}
}

// resetAll restores the default disposition for every installed signal.
// Used when the reactor terminates.
func (d *dispatcher) resetAll() {
	for sig := range d.handlers {
		signal.Reset(sig)
		delete(d.handlers, sig)
	}
}

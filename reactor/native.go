// File: reactor/native.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Native reactor backend. One logical thread of control: callbacks run
// to completion without preemption, the only suspension point is the
// multiplexer's bounded poll wait, and the sole asynchronous input —
// OS signal delivery — is deferred to the next tick boundary.

package reactor

import (
	"log"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/internal/concurrency"
)

// Native implements the backend SPI over the task queue, readiness
// multiplexer and signal dispatcher.
type Native struct {
	cfg     *Config
	clk     clock.Clock
	queue   *concurrency.TaskQueue
	mux     *multiplexer
	signals *dispatcher
	stats   *control.Registry

	draining    bool
	ticking     bool
	terminating bool
	exitCode    int
}

// Ensure compliance with the backend SPI.
var _ api.Backend = (*Native)(nil)

// NewNative constructs a native reactor backend. A nil cfg selects
// DefaultConfig.
func NewNative(cfg *Config) *Native {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.normalize()
	n := &Native{
		cfg:     cfg,
		clk:     cfg.Clock,
		queue:   concurrency.NewTaskQueue(),
		signals: newDispatcher(),
		stats:   control.NewRegistry(),
	}
	n.mux = newMultiplexer(n.queue.Enqueue)
	return n
}

// Clock returns the clock timer deadlines are read from.
func (n *Native) Clock() clock.Clock { return n.clk }

// Stats returns a snapshot of runtime counters.
func (n *Native) Stats() map[string]int64 { return n.stats.Snapshot() }

// ExitCode returns the code passed to Terminate, zero before then.
func (n *Native) ExitCode() int { return n.exitCode }

// Defer appends task to the tail of the task queue.
func (n *Native) Defer(task api.Task) {
	if task == nil {
		return
	}
	n.queue.Enqueue(task)
}

// AddReadListener installs the raw read-readiness callback for stream.
func (n *Native) AddReadListener(stream api.Stream, cb api.Task) (api.Cancel, error) {
	return n.mux.addListener(stream, api.DirRead, cb)
}

// AddWriteListener installs the raw write-readiness callback for stream.
func (n *Native) AddWriteListener(stream api.Stream, cb api.Task) (api.Cancel, error) {
	return n.mux.addListener(stream, api.DirWrite, cb)
}

// AddSignalListener installs the raw handler for sig.
func (n *Native) AddSignalListener(sig api.Signal, cb api.Task) (api.Cancel, error) {
	return n.signals.addListener(sig, cb)
}

// hasWork reports whether anything queued or registered remains.
func (n *Native) hasWork() bool {
	return n.queue.Len() > 0 || n.mux.active() > 0 || n.signals.active() > 0
}

// tick runs one pass: pending signals fan out first, then exactly the
// tasks present at pass start, then one bounded readiness poll. It
// returns the amount of work performed.
func (n *Native) tick() (int, error) {
	if n.ticking {
		return 0, api.NewError(api.ErrCodeProtocolMisuse,
			"recursive tick: run or drain invoked from inside a task")
	}
	n.ticking = true
	defer func() { n.ticking = false }()

	work := n.signals.dispatchPending()
	work += n.queue.DrainOnce()

	if n.mux.active() > 0 {
		n.mux.prune()
	}
	if n.mux.active() > 0 {
		// Zero wait while queued work is pending; otherwise a bounded
		// idle ceiling, periodically re-armed, so the loop neither
		// busy-spins nor sleeps past new input for long.
		wait := n.cfg.IdlePollCeiling
		if n.queue.Len() > 0 {
			wait = 0
		}
		events, err := n.mux.poll(wait)
		if err != nil {
			return work, err
		}
		n.stats.Add("poll_events", int64(events))
		work += events
	} else if n.queue.Len() > 0 {
		// Pure task/timer load: pause one cadence step instead of
		// spinning hot between deadline checks.
		time.Sleep(n.cfg.SpinPause)
	} else if n.signals.active() > 0 {
		// Only signal subscriptions remain: park on the delivery
		// channel up to the idle ceiling.
		work += n.signals.waitPending(n.cfg.IdlePollCeiling)
	}

	n.stats.Add("ticks", 1)
	n.stats.Add("work", int64(work))
	n.stats.Set("active_watches", int64(n.mux.active()))
	n.stats.Set("active_signals", int64(n.signals.active()))
	return work, nil
}

// Run ticks until the queue, the multiplexer and the signal dispatcher
// are jointly empty. The terminate latch is read at the top of every
// tick; once set, no further ticks run and all installed signal
// handlers revert to their default disposition. An error escaping the
// loop itself is fatal and propagates to the caller.
func (n *Native) Run() error {
	for {
		if n.terminating {
			n.signals.resetAll()
			return nil
		}
		if !n.hasWork() {
			return nil
		}
		if _, err := n.tick(); err != nil {
			log.Printf("[reactor] fatal: %v", err)
			return err
		}
	}
}

// Drain ticks until done reports true. Invoking it while already
// draining is a protocol-misuse fault, raised immediately. When a tick
// performs zero work and nothing queued or registered could ever
// complete the predicate, Drain fails fast instead of spinning.
func (n *Native) Drain(done api.DonePredicate) error {
	if done == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil drain predicate")
	}
	if n.draining {
		return api.NewError(api.ErrCodeProtocolMisuse, "drain already in progress")
	}
	if n.ticking {
		return api.NewError(api.ErrCodeProtocolMisuse,
			"drain invoked from inside a task")
	}
	n.draining = true
	defer func() { n.draining = false }()

	for {
		if done() {
			return nil
		}
		if n.terminating {
			n.signals.resetAll()
			return nil
		}
		work, err := n.tick()
		if err != nil {
			log.Printf("[reactor] fatal: %v", err)
			return err
		}
		if done() {
			return nil
		}
		if work == 0 && !n.hasWork() {
			return api.NewError(api.ErrCodeProtocolMisuse,
				"drain on an idle reactor: predicate can never complete")
		}
	}
}

// IsDraining reports whether a Drain call is in progress.
func (n *Native) IsDraining() bool {
	return n.draining
}

// Terminate requests shutdown with the given exit code. It only sets
// the latch: the decision to stop is taken at the next tick boundary,
// never pre-emptively mid-callback.
func (n *Native) Terminate(exitCode int) {
	n.terminating = true
	n.exitCode = exitCode
}

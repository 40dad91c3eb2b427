// File: internal/concurrency/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Timer emulation via self-rescheduling tasks. One-shot and repeating
// timers are derived purely from the task queue: a scheduled task wakes
// on every tick, checks its deadline against the clock, and either
// fires or re-enqueues itself. Resolution is therefore bounded below by
// the reactor's polling cadence, not wall-clock precision.

package concurrency

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/momentics/hioload-reactor/api"
)

// cancelCell is the small shared cell jointly owned by a scheduled task
// and the cancel handle returned to the caller. No atomics: execution is
// single-threaded, cancellation is cooperative and observed on the next
// wake.
type cancelCell struct {
	cancelled bool
}

// TimerScheduler derives timers from tasks pushed through an enqueue
// hook, so it works identically over the native queue and over the
// Defer primitive of an external-loop backend.
type TimerScheduler struct {
	clk     clock.Clock
	enqueue func(api.Task)
}

// NewTimerScheduler creates a scheduler feeding tasks into enqueue,
// reading time from clk.
func NewTimerScheduler(clk clock.Clock, enqueue func(api.Task)) *TimerScheduler {
	return &TimerScheduler{clk: clk, enqueue: enqueue}
}

// SetTimeout schedules cb to fire once the clock reaches now+delay.
// The fire rule is now >= deadline: a wake at the exact deadline
// instant fires. Fails with an invalid-argument fault when delay <= 0.
func (ts *TimerScheduler) SetTimeout(cb api.Task, delay time.Duration) (api.Cancel, error) {
	if delay <= 0 {
		return nil, api.Errorf(api.ErrCodeInvalidArgument,
			"timeout delay must be positive, got %v", delay)
	}
	cell := &cancelCell{}
	deadline := ts.clk.Now().Add(delay)
	var wake api.Task
	wake = func() {
		if cell.cancelled {
			return
		}
		if !ts.clk.Now().Before(deadline) {
			cell.cancelled = true // firing consumes the timer
			cb()
			return
		}
		ts.enqueue(wake)
	}
	ts.enqueue(wake)
	return cell.cancel(), nil
}

// SetInterval schedules cb to fire every interval with catch-up
// semantics: when a stall carries the clock past one or more deadlines,
// the timer fires exactly once and jumps to the next deadline, never
// firing a backlog. The wake task unconditionally re-enqueues itself
// until cancelled.
func (ts *TimerScheduler) SetInterval(cb api.Task, interval time.Duration) (api.Cancel, error) {
	if interval <= 0 {
		return nil, api.Errorf(api.ErrCodeInvalidArgument,
			"interval must be positive, got %v", interval)
	}
	cell := &cancelCell{}
	deadline := ts.clk.Now().Add(interval)
	var wake api.Task
	wake = func() {
		if cell.cancelled {
			return
		}
		if now := ts.clk.Now(); !now.Before(deadline) {
			cb()
			deadline = deadline.Add(interval)
			if deadline.Before(now) {
				// catch up after a long stall: one fire, then jump
				deadline = now.Add(interval)
			}
		}
		ts.enqueue(wake)
	}
	ts.enqueue(wake)
	return cell.cancel(), nil
}

// cancel returns the idempotent cancel handle for the cell. Cancelling
// twice, or after the timer fired, is a no-op.
func (c *cancelCell) cancel() api.Cancel {
	return func() error {
		c.cancelled = true
		return nil
	}
}

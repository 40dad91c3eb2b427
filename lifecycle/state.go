// File: lifecycle/state.go
// Package lifecycle implements the process-wide lifecycle state machine
// governing the reactor: legal state transitions, transition hooks, and
// the graceful-shutdown grace window entered on a termination signal.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package lifecycle

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/momentics/hioload-reactor/api"
)

// State is one of the lifecycle phases. Signaled is terminal.
type State int

const (
	StateNew State = iota
	StateLaunching
	StateRunning
	StateFailed
	StateSignaled
	StateDone
)

var stateNames = map[State]string{
	StateNew:       "NEW",
	StateLaunching: "LAUNCHING",
	StateRunning:   "RUNNING",
	StateFailed:    "FAILED",
	StateSignaled:  "SIGNALED",
	StateDone:      "DONE",
}

// String returns the canonical state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// transitions is the explicit legal-transition table; validity is a
// lookup, never branching logic.
var transitions = map[State][]State{
	StateNew:       {StateLaunching, StateRunning, StateFailed, StateSignaled},
	StateLaunching: {StateRunning, StateFailed, StateSignaled},
	StateRunning:   {StateFailed, StateDone, StateSignaled},
	StateFailed:    {StateSignaled},
	StateDone:      {StateSignaled},
	StateSignaled:  {},
}

// Hook observes a transition. Hooks run synchronously, immediately
// before and after the state changes.
type Hook func(from, to State)

// Machine validates transitions against the table and manages the
// grace deadline recorded on entering Signaled.
type Machine struct {
	clk           clock.Clock
	state         State
	gracePeriod   time.Duration
	graceDeadline time.Time
	before        []Hook
	after         []Hook
}

// NewMachine creates a machine in StateNew.
func NewMachine(clk clock.Clock, gracePeriod time.Duration) *Machine {
	if clk == nil {
		clk = clock.New()
	}
	return &Machine{clk: clk, state: StateNew, gracePeriod: gracePeriod}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// BeforeTransition registers a hook running before the state changes.
func (m *Machine) BeforeTransition(h Hook) {
	m.before = append(m.before, h)
}

// AfterTransition registers a hook running after the state changed.
func (m *Machine) AfterTransition(h Hook) {
	m.after = append(m.after, h)
}

// Transition moves the machine to the target state. Any transition
// outside the table is an illegal-transition fault. Entering Signaled
// records graceDeadline = now + gracePeriod.
func (m *Machine) Transition(to State) error {
	from := m.state
	if !legal(from, to) {
		return api.Errorf(api.ErrCodeProtocolMisuse,
			"illegal lifecycle transition %s -> %s", from, to)
	}
	for _, h := range m.before {
		h(from, to)
	}
	m.state = to
	if to == StateSignaled {
		m.graceDeadline = m.clk.Now().Add(m.gracePeriod)
	}
	for _, h := range m.after {
		h(from, to)
	}
	return nil
}

func legal(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GraceDeadline returns the deadline recorded on entering Signaled,
// zero before then.
func (m *Machine) GraceDeadline() time.Time {
	return m.graceDeadline
}

// SchedulingAllowed reports whether scheduling operations are still
// legal: always outside Signaled, and until the grace deadline within
// it. Past the deadline they fail closed.
func (m *Machine) SchedulingAllowed() bool {
	if m.state != StateSignaled {
		return true
	}
	return m.clk.Now().Before(m.graceDeadline)
}

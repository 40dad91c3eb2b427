// File: lifecycle/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide lifecycle context: selects a reactor backend once, on
// first use, via registered probes in fixed priority order with the
// native reactor as fallback; installs termination-signal handlers only
// while RUNNING via transition hooks; and runs the reactor to
// completion exactly once at process exit.

package lifecycle

import (
	"log"
	"sync"
	"syscall"
	"time"

	"github.com/momentics/hioload-reactor/adapters"
	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/reactor"
)

// Config holds lifecycle parameters, immutable once the context is
// active.
type Config struct {
	// GracePeriod is the window after a termination signal during which
	// pending work may still complete and scheduling remains legal.
	GracePeriod time.Duration

	// TerminationSignals are the signals that trigger graceful
	// shutdown while RUNNING.
	TerminationSignals []api.Signal

	// Reactor configures the native backend when no probe matches.
	Reactor *reactor.Config
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		GracePeriod:        5 * time.Second,
		TerminationSignals: []api.Signal{syscall.SIGINT, syscall.SIGTERM},
		Reactor:            reactor.DefaultConfig(),
	}
}

// BackendProbe reports an available backend, or false when the event
// loop it fronts is not present. Probes run in registration order;
// the first match wins for the process lifetime.
type BackendProbe struct {
	Name  string
	Probe func() (api.Backend, bool)
}

var (
	globalMu sync.Mutex
	global   *Context
	probes   []BackendProbe
)

// RegisterBackendProbe appends a probe to the fixed priority order.
// Registration after the context selected its backend has no effect.
func RegisterBackendProbe(p BackendProbe) {
	globalMu.Lock()
	defer globalMu.Unlock()
	probes = append(probes, p)
}

// Current returns the process-wide context, creating it with
// DefaultConfig on first use.
func Current() *Context {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = newContext(DefaultConfig())
	}
	return global
}

// Configure creates the process-wide context with cfg. It is a
// protocol-misuse fault once the context already exists.
func Configure(cfg *Config) (*Context, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		return nil, api.NewError(api.ErrCodeProtocolMisuse,
			"lifecycle context already active")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	global = newContext(cfg)
	return global, nil
}

// Reset discards the process-wide context and registered probes.
// Test support only; never call it from a running reactor.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = nil
	probes = nil
}

// Context confines all process-wide mutable state: the state machine,
// the selected backend and its reactor wrapper, and shutdown tracking.
type Context struct {
	mu          sync.Mutex
	cfg         *Config
	machine     *Machine
	backendName string
	backend     api.Backend
	reactor     api.Reactor
	sigCancels  []api.Cancel
	finished    bool
	exitCode    int
}

func newContext(cfg *Config) *Context {
	if cfg.Reactor == nil {
		cfg.Reactor = reactor.DefaultConfig()
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 5 * time.Second
	}
	c := &Context{
		cfg:     cfg,
		machine: NewMachine(cfg.Reactor.Clock, cfg.GracePeriod),
	}
	c.machine.BeforeTransition(c.onLeaveState)
	c.machine.AfterTransition(c.onEnterState)
	return c
}

// Machine exposes the lifecycle state machine.
func (c *Context) Machine() *Machine {
	return c.machine
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	return c.machine.State()
}

// BackendName reports which backend the context selected, empty before
// first use.
func (c *Context) BackendName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backendName
}

// Reactor returns the process reactor, selecting the backend on first
// use: registered probes in fixed priority order, else the native
// reactor.
func (c *Context) Reactor() api.Reactor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reactor != nil {
		return c.reactor
	}
	globalMu.Lock()
	candidates := make([]BackendProbe, len(probes))
	copy(candidates, probes)
	globalMu.Unlock()
	for _, p := range candidates {
		if backend, ok := p.Probe(); ok {
			c.backend = backend
			c.backendName = p.Name
			break
		}
	}
	if c.backend == nil {
		c.backend = reactor.NewNative(c.cfg.Reactor)
		c.backendName = "native"
	}
	c.reactor = adapters.NewReactorAdapter(c.backend, c.cfg.Reactor.Clock)
	return c.reactor
}

// Backend returns the selected backend, selecting it on first use.
func (c *Context) Backend() api.Backend {
	c.Reactor()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// EnsureSchedulable fails closed once the grace deadline passed.
func (c *Context) EnsureSchedulable() error {
	if c.machine.SchedulingAllowed() {
		return nil
	}
	return api.NewError(api.ErrCodeProtocolMisuse,
		"scheduling rejected: shutdown grace period expired")
}

// Terminate requests reactor shutdown with the given exit code.
func (c *Context) Terminate(exitCode int) {
	c.exitCode = exitCode
	c.Reactor().Terminate(exitCode)
}

// ExitCode returns the code recorded by Terminate, zero otherwise.
func (c *Context) ExitCode() int {
	return c.exitCode
}

// onEnterState installs termination-signal handlers when the machine
// enters RUNNING.
func (c *Context) onEnterState(from, to State) {
	if to != StateRunning {
		return
	}
	r := c.Reactor()
	for _, sig := range c.cfg.TerminationSignals {
		sig := sig
		cancel, err := r.OnSignal(sig, func() { c.signalled(sig) })
		if err != nil {
			log.Printf("[lifecycle] error: installing handler for signal %d: %v", sig, err)
			continue
		}
		c.sigCancels = append(c.sigCancels, cancel)
	}
}

// onLeaveState uninstalls the termination-signal handlers on any exit
// from RUNNING.
func (c *Context) onLeaveState(from, to State) {
	if from != StateRunning {
		return
	}
	for _, cancel := range c.sigCancels {
		if err := cancel(); err != nil {
			log.Printf("[lifecycle] error: removing termination handler: %v", err)
		}
	}
	c.sigCancels = nil
}

// signalled handles a termination signal received while RUNNING: the
// machine enters SIGNALED and a grace timer terminates the reactor at
// the deadline, letting pending work complete in between.
func (c *Context) signalled(sig api.Signal) {
	if c.machine.State() != StateRunning {
		return
	}
	log.Printf("[lifecycle] received signal %d, entering grace period of %v", sig, c.cfg.GracePeriod)
	if err := c.machine.Transition(StateSignaled); err != nil {
		log.Printf("[lifecycle] error: %v", err)
		return
	}
	code := 128 + int(sig)
	if _, err := c.Reactor().SetTimeout(func() { c.Terminate(code) }, c.cfg.GracePeriod); err != nil {
		// No grace timer means no later tick will stop the loop; stop
		// at the next boundary instead.
		c.Terminate(code)
	}
}

// Finish runs the reactor to completion exactly once, transitioning
// LAUNCHING -> RUNNING -> {DONE, FAILED}. It is the process-exit
// integration point: call it (or facade.Run) before main returns. The
// returned exit code is the one recorded by Terminate.
func (c *Context) Finish() (int, error) {
	c.mu.Lock()
	if c.finished {
		code := c.exitCode
		c.mu.Unlock()
		return code, nil
	}
	c.finished = true
	c.mu.Unlock()

	if c.machine.State() == StateNew {
		if err := c.machine.Transition(StateLaunching); err != nil {
			return 1, err
		}
	}
	if c.machine.State() == StateLaunching {
		if err := c.machine.Transition(StateRunning); err != nil {
			return 1, err
		}
	}
	if err := c.Reactor().Run(); err != nil {
		log.Printf("[lifecycle] fatal: reactor failed: %v", err)
		if c.machine.State() == StateRunning || c.machine.State() == StateLaunching {
			if terr := c.machine.Transition(StateFailed); terr != nil {
				log.Printf("[lifecycle] error: %v", terr)
			}
		}
		return 1, err
	}
	if c.machine.State() == StateRunning {
		if err := c.machine.Transition(StateDone); err != nil {
			return 1, err
		}
	}
	return c.exitCode, nil
}

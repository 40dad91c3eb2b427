// File: lifecycle/context_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Context behavior runs against the fake backend, registered through a
// probe, so shutdown choreography is fully deterministic.

package lifecycle_test

import (
	"syscall"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/fake"
	"github.com/momentics/hioload-reactor/lifecycle"
	"github.com/momentics/hioload-reactor/reactor"
)

// withFakeBackend resets the process context and wires a fake backend
// through the probe mechanism, with a mock clock.
func withFakeBackend(t *testing.T, cfg *lifecycle.Config) (*fake.Backend, *clock.Mock, *lifecycle.Context) {
	t.Helper()
	lifecycle.Reset()
	t.Cleanup(lifecycle.Reset)

	clk := clock.NewMock()
	if cfg == nil {
		cfg = lifecycle.DefaultConfig()
	}
	rcfg := reactor.DefaultConfig()
	rcfg.Clock = clk
	cfg.Reactor = rcfg

	backend := fake.NewBackend()
	lifecycle.RegisterBackendProbe(lifecycle.BackendProbe{
		Name:  "fake",
		Probe: func() (api.Backend, bool) { return backend, true },
	})
	ctx, err := lifecycle.Configure(cfg)
	require.NoError(t, err)
	return backend, clk, ctx
}

func TestCurrentLazyInit(t *testing.T) {
	lifecycle.Reset()
	t.Cleanup(lifecycle.Reset)

	ctx := lifecycle.Current()
	require.NotNil(t, ctx)
	assert.Same(t, ctx, lifecycle.Current(), "one process-wide context")
	assert.Equal(t, lifecycle.StateNew, ctx.State())
}

func TestConfigureTwiceFaults(t *testing.T) {
	lifecycle.Reset()
	t.Cleanup(lifecycle.Reset)

	_, err := lifecycle.Configure(nil)
	require.NoError(t, err)
	_, err = lifecycle.Configure(nil)
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.ErrCodeProtocolMisuse))
}

func TestBackendProbePriority(t *testing.T) {
	backend, _, ctx := withFakeBackend(t, nil)
	// A later probe never runs once an earlier one matched.
	lifecycle.RegisterBackendProbe(lifecycle.BackendProbe{
		Name:  "late",
		Probe: func() (api.Backend, bool) { t.Fatal("low-priority probe consulted"); return nil, false },
	})

	ctx.Reactor()
	assert.Equal(t, "fake", ctx.BackendName())
	assert.Same(t, backend, ctx.Backend())
}

func TestNativeFallbackWhenNoProbeMatches(t *testing.T) {
	lifecycle.Reset()
	t.Cleanup(lifecycle.Reset)
	lifecycle.RegisterBackendProbe(lifecycle.BackendProbe{
		Name:  "absent",
		Probe: func() (api.Backend, bool) { return nil, false },
	})

	ctx := lifecycle.Current()
	ctx.Reactor()
	assert.Equal(t, "native", ctx.BackendName())
}

func TestFinishRunsReactorToCompletionOnce(t *testing.T) {
	backend, _, ctx := withFakeBackend(t, nil)

	ran := 0
	ctx.Reactor().Defer(func() { ran++ })

	code, err := ctx.Finish()
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, 1, ran)
	assert.Equal(t, lifecycle.StateDone, ctx.State())
	assert.GreaterOrEqual(t, backend.TicksRun, 1)

	// Exactly once: a second call does not run the reactor again.
	ticks := backend.TicksRun
	code, err = ctx.Finish()
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, ticks, backend.TicksRun)
}

func TestRunningInstallsTerminationHandlers(t *testing.T) {
	backend, _, ctx := withFakeBackend(t, nil)
	require.False(t, backend.HasSignalListener(syscall.SIGTERM))

	require.NoError(t, ctx.Machine().Transition(lifecycle.StateRunning))
	assert.True(t, backend.HasSignalListener(syscall.SIGINT))
	assert.True(t, backend.HasSignalListener(syscall.SIGTERM))

	require.NoError(t, ctx.Machine().Transition(lifecycle.StateDone))
	assert.False(t, backend.HasSignalListener(syscall.SIGINT),
		"handlers uninstall on exit from RUNNING")
	assert.False(t, backend.HasSignalListener(syscall.SIGTERM))
}

func TestTerminationSignalEntersGracefulShutdown(t *testing.T) {
	cfg := lifecycle.DefaultConfig()
	cfg.GracePeriod = 2 * time.Second
	backend, clk, ctx := withFakeBackend(t, cfg)

	require.NoError(t, ctx.Machine().Transition(lifecycle.StateRunning))
	backend.FireSignal(syscall.SIGTERM)

	assert.Equal(t, lifecycle.StateSignaled, ctx.State())
	assert.False(t, backend.HasSignalListener(syscall.SIGTERM),
		"default disposition restored once SIGNALED")
	require.NoError(t, ctx.EnsureSchedulable(),
		"scheduling stays legal during the grace window")

	// The grace timer terminates the reactor at the deadline.
	require.Equal(t, 1, backend.Pending())
	clk.Add(2 * time.Second)
	backend.RunOnce()
	assert.True(t, backend.Terminated)
	assert.Equal(t, 128+int(syscall.SIGTERM), backend.ExitCode)

	err := ctx.EnsureSchedulable()
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.ErrCodeProtocolMisuse),
		"scheduling fails closed past the grace deadline")
}

func TestFinishFailurePathEntersFailed(t *testing.T) {
	lifecycle.Reset()
	t.Cleanup(lifecycle.Reset)

	failing := &failingBackend{Backend: fake.NewBackend()}
	lifecycle.RegisterBackendProbe(lifecycle.BackendProbe{
		Name:  "failing",
		Probe: func() (api.Backend, bool) { return failing, true },
	})
	ctx := lifecycle.Current()

	_, err := ctx.Finish()
	require.Error(t, err)
	assert.Equal(t, lifecycle.StateFailed, ctx.State())

	// From FAILED only SIGNALED remains legal.
	require.Error(t, ctx.Machine().Transition(lifecycle.StateRunning))
	require.NoError(t, ctx.Machine().Transition(lifecycle.StateSignaled))
}

type failingBackend struct {
	*fake.Backend
}

func (b *failingBackend) Run() error {
	return api.NewError(api.ErrCodeInternal, "poll collapsed")
}

// File: adapters/reactor_adapter_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The adapter contract is exercised against the fake backend: every
// backend must end up with identical multi-subscriber fan-out,
// auto-teardown and timer behavior through this wrapper.

package adapters_test

import (
	"syscall"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-reactor/adapters"
	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/fake"
)

func newAdapter() (*fake.Backend, *clock.Mock, api.Reactor) {
	backend := fake.NewBackend()
	clk := clock.NewMock()
	return backend, clk, adapters.NewReactorAdapter(backend, clk)
}

func TestAdapterDeferForwards(t *testing.T) {
	backend, _, r := newAdapter()
	ran := false
	r.Defer(func() { ran = true })
	require.Equal(t, 1, backend.Pending())
	require.NoError(t, r.Run())
	assert.True(t, ran)
}

func TestAdapterStreamFanOutAndTeardown(t *testing.T) {
	backend, _, r := newAdapter()
	stream := fake.Stream(5)

	var got []string
	cancelA, err := r.OnReadable(stream, func() { got = append(got, "a") })
	require.NoError(t, err)
	cancelB, err := r.OnReadable(stream, func() { got = append(got, "b") })
	require.NoError(t, err)
	require.True(t, backend.HasReadListener(5), "raw watch created on first subscriber")

	backend.FireReadable(5)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, cancelA())
	require.True(t, backend.HasReadListener(5), "watch survives while a subscriber remains")
	got = nil
	backend.FireReadable(5)
	assert.Equal(t, []string{"b"}, got)

	require.NoError(t, cancelB())
	assert.False(t, backend.HasReadListener(5), "last removal releases the raw watch")

	err = cancelB()
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.ErrCodeProtocolMisuse))
}

func TestAdapterReadWriteAreIndependent(t *testing.T) {
	backend, _, r := newAdapter()
	stream := fake.Stream(9)

	reads, writes := 0, 0
	_, err := r.OnReadable(stream, func() { reads++ })
	require.NoError(t, err)
	cancelW, err := r.OnWritable(stream, func() { writes++ })
	require.NoError(t, err)

	backend.FireWritable(9)
	backend.FireReadable(9)
	assert.Equal(t, 1, reads)
	assert.Equal(t, 1, writes)

	require.NoError(t, cancelW())
	backend.FireWritable(9)
	assert.Equal(t, 1, writes)
	assert.True(t, backend.HasReadListener(9), "read direction unaffected by write teardown")
}

func TestAdapterSignalFanOut(t *testing.T) {
	backend, _, r := newAdapter()

	var got []string
	cancelA, err := r.OnSignal(syscall.SIGHUP, func() { got = append(got, "a") })
	require.NoError(t, err)
	_, err = r.OnSignal(syscall.SIGHUP, func() { got = append(got, "b") })
	require.NoError(t, err)
	require.True(t, backend.HasSignalListener(syscall.SIGHUP))

	backend.FireSignal(syscall.SIGHUP)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, cancelA())
	got = nil
	backend.FireSignal(syscall.SIGHUP)
	assert.Equal(t, []string{"b"}, got)
}

func TestAdapterTimersRunOverBackendDefer(t *testing.T) {
	backend, clk, r := newAdapter()
	fired := false
	_, err := r.SetTimeout(func() { fired = true }, 100*time.Millisecond)
	require.NoError(t, err)

	backend.RunOnce()
	require.False(t, fired, "wake before the deadline reschedules")
	require.Equal(t, 1, backend.Pending())

	clk.Add(100 * time.Millisecond)
	backend.RunOnce()
	assert.True(t, fired)
	assert.Zero(t, backend.Pending())
}

func TestAdapterIntervalOverBackend(t *testing.T) {
	backend, clk, r := newAdapter()
	fires := 0
	cancel, err := r.SetInterval(func() { fires++ }, 50*time.Millisecond)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		clk.Add(50 * time.Millisecond)
		backend.RunOnce()
	}
	require.Equal(t, 3, fires)

	require.NoError(t, cancel())
	clk.Add(time.Second)
	backend.RunOnce()
	assert.Equal(t, 3, fires)
}

func TestAdapterControlForwarding(t *testing.T) {
	backend, _, r := newAdapter()
	assert.False(t, r.IsDraining())

	r.Terminate(7)
	assert.True(t, backend.Terminated)
	assert.Equal(t, 7, backend.ExitCode)

	count := 0
	r.Defer(func() { count++ })
	r.Defer(func() { count++ })
	backend.Terminated = false
	require.NoError(t, r.Drain(func() bool { return count >= 1 }))
	assert.Equal(t, 2, count, "the in-flight tick completes before drain returns")
}

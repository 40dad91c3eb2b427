// File: internal/listener/set_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listener_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/internal/listener"
)

func TestSetInvokesSubscribersInOrder(t *testing.T) {
	s := listener.NewSet(nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		_, err := s.Subscribe(func() { order = append(order, i) })
		require.NoError(t, err)
	}
	s.Invoke()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestSetRemoveOneLeavesOthers(t *testing.T) {
	s := listener.NewSet(nil)
	var got []string
	idA, err := s.Subscribe(func() { got = append(got, "a") })
	require.NoError(t, err)
	_, err = s.Subscribe(func() { got = append(got, "b") })
	require.NoError(t, err)

	require.NoError(t, s.Remove(idA))
	s.Invoke()
	assert.Equal(t, []string{"b"}, got)
	assert.Equal(t, 1, s.Len())
}

func TestSetDetachOnEmptyAndClose(t *testing.T) {
	detached := 0
	s := listener.NewSet(func() { detached++ })
	id, err := s.Subscribe(func() {})
	require.NoError(t, err)

	require.NoError(t, s.Remove(id))
	assert.Equal(t, 1, detached, "onEmpty runs the instant the set empties")

	// Detached sets accept no new subscribers.
	_, err = s.Subscribe(func() {})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrProtocolMisuse)
}

func TestSetDoubleRemoveFaults(t *testing.T) {
	s := listener.NewSet(nil)
	id, err := s.Subscribe(func() {})
	require.NoError(t, err)
	_, err = s.Subscribe(func() {})
	require.NoError(t, err)

	require.NoError(t, s.Remove(id))
	err = s.Remove(id)
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.ErrCodeProtocolMisuse))
}

func TestSetMutationDuringInvoke(t *testing.T) {
	s := listener.NewSet(nil)
	var got []string

	var selfID int
	var err error
	selfID, err = s.Subscribe(func() {
		got = append(got, "self")
		require.NoError(t, s.Remove(selfID))
	})
	require.NoError(t, err)

	_, err = s.Subscribe(func() { got = append(got, "sibling") })
	require.NoError(t, err)

	// Self-unsubscription from within the iteration is legal.
	s.Invoke()
	assert.Equal(t, []string{"self", "sibling"}, got)

	got = nil
	s.Invoke()
	assert.Equal(t, []string{"sibling"}, got)
}

func TestSetPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	s := listener.NewSet(nil)
	ran := false
	_, err := s.Subscribe(func() { panic("boom") })
	require.NoError(t, err)
	_, err = s.Subscribe(func() { ran = true })
	require.NoError(t, err)

	s.Invoke()
	assert.True(t, ran)
}

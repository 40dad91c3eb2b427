//go:build !linux && !darwin

// File: reactor/multiplexer_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"time"

	"github.com/momentics/hioload-reactor/api"
)

type multiplexer struct {
	enqueue func(api.Task)
}

func newMultiplexer(enqueue func(api.Task)) *multiplexer {
	return &multiplexer{enqueue: enqueue}
}

func (m *multiplexer) active() int { return 0 }

func (m *multiplexer) addListener(stream api.Stream, dir api.Direction, cb api.Task) (api.Cancel, error) {
	return nil, api.NewError(api.ErrCodeInternal,
		"stream readiness polling is not supported on this platform")
}

func (m *multiplexer) prune() {}

func (m *multiplexer) poll(wait time.Duration) (int, error) {
	return 0, nil
}

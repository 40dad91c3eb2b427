// File: reactor/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Config holds native reactor parameters, immutable per instance.
type Config struct {
	// IdlePollCeiling bounds the readiness wait when the task queue is
	// empty. The poll re-arms after the ceiling elapses, so pending
	// signals and newly registered work are picked up even when no
	// stream ever becomes ready.
	IdlePollCeiling time.Duration

	// SpinPause is the inter-tick pause applied when only queued tasks
	// exist (no streams to poll). It sets the cadence floor for timer
	// resolution without busy-spinning the CPU.
	SpinPause time.Duration

	// Clock supplies time for timer deadlines. Tests inject clock.Mock.
	Clock clock.Clock
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		IdlePollCeiling: 20 * time.Millisecond,
		SpinPause:       time.Millisecond,
		Clock:           clock.New(),
	}
}

func (c *Config) normalize() *Config {
	out := *c
	if out.IdlePollCeiling <= 0 {
		out.IdlePollCeiling = 20 * time.Millisecond
	}
	if out.SpinPause <= 0 {
		out.SpinPause = time.Millisecond
	}
	if out.Clock == nil {
		out.Clock = clock.New()
	}
	return &out
}

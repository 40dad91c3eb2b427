// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the native cooperative event reactor: a FIFO
// task queue, timers emulated by self-rescheduling tasks, a bounded-wait
// select(2) readiness multiplexer, and an OS signal dispatcher, composed
// into the run/drain backend contract.
package reactor

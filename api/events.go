// File: api/events.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream and signal identities used by readiness and signal subscriptions.

package api

import "syscall"

// Stream is any descriptor-backed handle the multiplexer can watch.
// *os.File and raw socket wrappers satisfy it.
type Stream interface {
	Fd() uintptr
}

// Signal identifies an OS signal number.
type Signal = syscall.Signal

// Direction distinguishes read and write readiness interest.
type Direction int

const (
	// DirRead selects read-readiness interest.
	DirRead Direction = iota
	// DirWrite selects write-readiness interest.
	DirWrite
)

// String returns a short tag for logging.
func (d Direction) String() string {
	if d == DirWrite {
		return "write"
	}
	return "read"
}

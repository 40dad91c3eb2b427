//go:build linux || darwin

// File: reactor/select_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// select(2)-based readiness primitive. Level-triggered, and subject to
// the descriptor-table ceiling (FD_SETSIZE) the multiplexer checks
// before every poll.

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// maxPollFD is the highest descriptor select(2) can address.
const maxPollFD = unix.FD_SETSIZE

// selectWait blocks up to timeout for readiness on the given sets.
// A wait interrupted by signal delivery reports zero ready descriptors;
// the caller's next tick picks the pending signals up.
func selectWait(nfd int, r, w, e *unix.FdSet, timeout time.Duration) (int, error) {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(nfd, r, w, e, &tv)
	if err == unix.EINTR {
		return 0, nil
	}
	return n, err
}

// fdValid reports whether fd still names an open descriptor.
func fdValid(fd uintptr) bool {
	var st unix.Stat_t
	return unix.Fstat(int(fd), &st) == nil
}

//go:build linux || darwin

// File: reactor/multiplexer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream readiness multiplexer. Groups all registered streams into one
// bounded-wait select(2) call per tick and turns ready streams into
// queue tasks. Readiness is level-triggered: a callback that does not
// fully drain its stream is invoked again on the next poll.

package reactor

import (
	"log"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-reactor/api"
)

// watch is the raw per-descriptor registration: at most one callback
// per direction, as the backend SPI requires. Multi-subscriber fan-out
// lives in the listener registry layered above.
type watch struct {
	stream api.Stream
	read   api.Task
	write  api.Task
}

type multiplexer struct {
	watches map[uintptr]*watch
	enqueue func(api.Task)
}

func newMultiplexer(enqueue func(api.Task)) *multiplexer {
	return &multiplexer{
		watches: make(map[uintptr]*watch),
		enqueue: enqueue,
	}
}

// active returns the number of watched descriptors.
func (m *multiplexer) active() int {
	return len(m.watches)
}

// addListener installs cb as the sole callback for stream+dir. The
// returned cancel clears it; the descriptor is dropped from the watch
// table once both directions are clear. Cancelling twice is a
// protocol-misuse fault.
func (m *multiplexer) addListener(stream api.Stream, dir api.Direction, cb api.Task) (api.Cancel, error) {
	if stream == nil || cb == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil stream or callback")
	}
	fd := stream.Fd()
	w, ok := m.watches[fd]
	if !ok {
		w = &watch{stream: stream}
		m.watches[fd] = w
	}
	slot := &w.read
	if dir == api.DirWrite {
		slot = &w.write
	}
	if *slot != nil {
		return nil, api.Errorf(api.ErrCodeProtocolMisuse,
			"fd %d already has a %s listener", fd, dir)
	}
	*slot = cb
	removed := false
	return func() error {
		if removed {
			return api.Errorf(api.ErrCodeProtocolMisuse,
				"fd %d %s listener already removed", fd, dir)
		}
		removed = true
		*slot = nil
		// The fd may have been pruned and re-registered since; only
		// drop the table entry this cancel still owns.
		if w.read == nil && w.write == nil {
			if cur, ok := m.watches[fd]; ok && cur == w {
				delete(m.watches, fd)
			}
		}
		return nil
	}, nil
}

// prune drops registrations whose descriptor is no longer open, so a
// stream closed by its own callback never reaches the poll call.
func (m *multiplexer) prune() {
	for fd := range m.watches {
		if !fdValid(fd) {
			log.Printf("[multiplexer] pruning closed fd %d", fd)
			delete(m.watches, fd)
		}
	}
}

// poll performs one bounded readiness wait and enqueues a task for
// every ready stream. A descriptor the poll primitive structurally
// cannot address is a resource-limit fault, never a silent drop.
func (m *multiplexer) poll(wait time.Duration) (int, error) {
	var rset, wset, eset unix.FdSet
	nfd := 0
	for fd, w := range m.watches {
		if fd >= uintptr(maxPollFD) {
			return 0, api.Errorf(api.ErrCodeResourceExhausted,
				"fd %d exceeds the select(2) descriptor ceiling %d", fd, maxPollFD)
		}
		if w.read != nil {
			rset.Set(int(fd))
		}
		if w.write != nil {
			wset.Set(int(fd))
		}
		eset.Set(int(fd))
		if int(fd) >= nfd {
			nfd = int(fd) + 1
		}
	}
	n, err := selectWait(nfd, &rset, &wset, &eset, wait)
	if err != nil {
		return 0, api.Errorf(api.ErrCodeInternal, "select: %v", err)
	}
	if n == 0 {
		return 0, nil
	}
	dispatched := 0
	for fd, w := range m.watches {
		// An exceptional condition wakes both directions so handlers
		// observe EOF/error on their next IO attempt.
		failed := eset.IsSet(int(fd))
		if w.read != nil && (rset.IsSet(int(fd)) || failed) {
			m.enqueue(w.read)
			dispatched++
		}
		if w.write != nil && (wset.IsSet(int(fd)) || failed) {
			m.enqueue(w.write)
			dispatched++
		}
	}
	return dispatched, nil
}

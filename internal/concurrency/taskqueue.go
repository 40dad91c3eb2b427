// File: internal/concurrency/taskqueue.go
// Package concurrency implements the leaf scheduling components of the
// native reactor: the FIFO task queue and the timer scheduler.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"log"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-reactor/api"
)

// TaskQueue is a FIFO queue of zero-argument units of work. It is not
// safe for concurrent use; the reactor owns it from a single goroutine.
type TaskQueue struct {
	q *queue.Queue
}

// NewTaskQueue creates an empty task queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{q: queue.New()}
}

// Enqueue appends task to the tail.
func (tq *TaskQueue) Enqueue(task api.Task) {
	tq.q.Add(task)
}

// Len returns the number of pending tasks.
func (tq *TaskQueue) Len() int {
	return tq.q.Length()
}

// DrainOnce executes exactly the tasks present at call time and returns
// the count executed. Tasks appended during the pass wait for the next
// one, which bounds a single tick. Each task runs inside its own error
// boundary: a panicking task is logged and skipped, and the pass
// continues with the remaining tasks.
func (tq *TaskQueue) DrainOnce() int {
	n := tq.q.Length()
	for i := 0; i < n; i++ {
		task := tq.q.Remove().(api.Task)
		runGuarded(task)
	}
	return n
}

// runGuarded invokes task under a recover boundary. A callback fault
// never aborts the surrounding tick.
func runGuarded(task api.Task) {
	defer func() {
		if cause := recover(); cause != nil {
			log.Printf("[queue] error: task callback panic (%T): %v", cause, cause)
		}
	}()
	task()
}

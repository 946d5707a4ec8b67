// Package worker implements a single-lane execution context: a
// goroutine reading off its own buffered channel, the Go analogue of
// the Asio strand the original engine used for exclusion-without-locks.
package worker

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dispatchengine/engine/internal/domain"
)

// Worker is the unit of parallelism within a Queue. Creating a Worker
// does not start a thread of its own beyond the one goroutine it
// launches to drain its lane in FIFO order.
type Worker struct {
	id uuid.UUID

	lane    chan *domain.Job
	done    chan struct{}
	tasksN  atomic.Uint64
}

func New() *Worker {
	w := &Worker{
		id:   uuid.New(),
		lane: make(chan *domain.Job, 256),
		done: make(chan struct{}),
	}
	go w.drain()
	return w
}

func (w *Worker) ID() uuid.UUID { return w.id }

// NumberOfTasks is a monotonic count of jobs ever dispatched onto this
// worker. It is never decremented on completion; it exists only as a
// load-balancing hint for Queue.Dispatch's least-loaded selection.
func (w *Worker) NumberOfTasks() uint64 { return w.tasksN.Load() }

// Dispatch schedules job.Run() on this worker's lane and returns
// immediately; execution happens on the drain goroutine.
func (w *Worker) Dispatch(job *domain.Job) {
	w.tasksN.Add(1)
	w.lane <- job
}

// Stop closes the worker's lane; the drain goroutine still runs every
// job already queued on it and then exits. Stop does not wait for
// those jobs to finish, matching the "shrinking does not wait for
// in-flight jobs" invariant on Queue.
func (w *Worker) Stop() {
	close(w.lane)
}

func (w *Worker) drain() {
	defer close(w.done)
	for job := range w.lane {
		job.Run()
	}
}

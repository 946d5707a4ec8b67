package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskHandler is the callback a Task wraps. It receives a function
// that reports the job's cancellation flag (pollable mid-run) and the payload
// captured at dispatch time. Returning ErrCancelled marks the job
// cancelled rather than failed.
type TaskHandler func(cancelled func() bool, payload map[string]any) error

// Task is a named, reusable handler descriptor. Immutable after
// registration; re-registering a name overwrites (Queue.AddTask
// replace semantics).
type Task struct {
	ID      uuid.UUID
	Name    string
	Handler TaskHandler
}

// Job is a single execution attempt of a Task with a payload captured
// at dispatch time. A Job is owned by the Queue.jobs map that created
// it; a Worker holds only a transient reference for the duration of
// the scheduled run.
//
// A mutex guards every field below instead of independent atomics:
// it gives a single "finished publishes the other outcome bits"
// guarantee, at the cost of a lock per read, which is never taken on
// a hot path.
type Job struct {
	mu sync.Mutex

	id      uuid.UUID
	task    *Task
	payload map[string]any

	started   bool
	cancelled bool
	finished  bool
	failed    bool

	startedAt   time.Time
	cancelledAt time.Time
	finishedAt  time.Time

	err error
}

func NewJob(task *Task, payload map[string]any) *Job {
	return &Job{
		id:      uuid.New(),
		task:    task,
		payload: payload,
	}
}

func (j *Job) ID() uuid.UUID { return j.id }

// TaskID returns the identity of the task this job was created from.
func (j *Job) TaskID() uuid.UUID { return j.task.ID }

func (j *Job) Started() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.started
}

func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

func (j *Job) Finished() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finished
}

func (j *Job) Failed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failed
}

func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) StartedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.startedAt
}

func (j *Job) CancelledAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelledAt
}

func (j *Job) FinishedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finishedAt
}

// isCancelRequested is the poll function handed to the task handler.
func (j *Job) isCancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// Cancel flips the cancellation flag. Safe before, during, or after
// Run; a call after Finished is a no-op on state.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finished {
		return
	}
	j.cancelled = true
}

// Run marks the job started, invokes the task handler unless already
// cancelled, and records exactly one terminal outcome. finished is set
// last in every path so an observer that sees finished also sees the
// outcome flags.
func (j *Job) Run() {
	j.mu.Lock()
	j.started = true
	j.startedAt = time.Now()
	alreadyCancelled := j.cancelled
	handler := j.task.Handler
	payload := j.payload
	j.mu.Unlock()

	if alreadyCancelled {
		j.mu.Lock()
		j.cancelledAt = time.Now()
		j.finished = true
		j.finishedAt = time.Now()
		j.mu.Unlock()
		return
	}

	err := func() (result error) {
		defer func() {
			if r := recover(); r != nil {
				result = errFromPanic(r)
			}
		}()
		return handler(j.isCancelRequested, payload)
	}()

	j.mu.Lock()
	defer j.mu.Unlock()
	switch {
	case err == ErrCancelled:
		j.cancelled = true
		j.cancelledAt = time.Now()
	case err != nil:
		j.failed = true
		j.err = err
	}
	j.finished = true
	j.finishedAt = time.Now()
}

// errFromPanic converts a recovered panic value from a task handler
// into a plain error so a misbehaving handler fails its job instead of
// crashing the worker goroutine.
func errFromPanic(v any) error {
	return &panicError{val: v}
}

type panicError struct{ val any }

func (e *panicError) Error() string { return "task handler panic: unexpected error" }

// Package queue implements the dispatch engine's scheduling unit: a
// named pool of workers that run registered tasks on demand. Queue
// owns three independent maps, each behind its own mutex, so work on
// one map never waits on another map's lock.
package queue

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dispatchengine/engine/internal/domain"
	"github.com/dispatchengine/engine/internal/queue/worker"
)

// Queue is safe for concurrent use. It is typically owned by a State
// and addressed by name from HTTP controllers.
type Queue struct {
	id   uuid.UUID
	name string

	workersMu sync.Mutex
	workers   map[uuid.UUID]*worker.Worker

	jobsMu sync.Mutex
	jobs   map[uuid.UUID]*domain.Job

	tasksMu sync.Mutex
	tasks   map[string]*domain.Task
}

// New returns a Queue with no workers and no registered tasks. Callers
// typically follow up with AddTask and SetWorkersTo before the first
// Dispatch.
func New(name string) *Queue {
	return &Queue{
		id:      uuid.New(),
		name:    name,
		workers: make(map[uuid.UUID]*worker.Worker),
		jobs:    make(map[uuid.UUID]*domain.Job),
		tasks:   make(map[string]*domain.Task),
	}
}

func (q *Queue) ID() uuid.UUID { return q.id }

func (q *Queue) Name() string { return q.name }

// AddTask registers or replaces a task under name.
func (q *Queue) AddTask(name string, handler domain.TaskHandler) {
	q.tasksMu.Lock()
	defer q.tasksMu.Unlock()
	q.tasks[name] = &domain.Task{ID: uuid.New(), Name: name, Handler: handler}
}

// Tasks returns the registered tasks sorted by name.
func (q *Queue) Tasks() []*domain.Task {
	q.tasksMu.Lock()
	defer q.tasksMu.Unlock()
	out := make([]*domain.Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Workers returns a stable-ordered snapshot of the current worker pool.
func (q *Queue) Workers() []*worker.Worker {
	q.workersMu.Lock()
	defer q.workersMu.Unlock()
	out := make([]*worker.Worker, 0, len(q.workers))
	for _, w := range q.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out
}

func (q *Queue) NumberOfWorkers() int {
	q.workersMu.Lock()
	defer q.workersMu.Unlock()
	return len(q.workers)
}

// Jobs returns every job this queue has ever dispatched, ordered by
// start time. Jobs that have not started yet (zero StartedAt) come
// first, in no defined order among themselves.
func (q *Queue) Jobs() []*domain.Job {
	q.jobsMu.Lock()
	defer q.jobsMu.Unlock()
	out := make([]*domain.Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt().Before(out[j].StartedAt())
	})
	return out
}

// SetWorkersTo scales the pool to exactly n workers. Scaling down stops
// the excess workers without waiting for their in-flight jobs to
// finish. Calling SetWorkersTo with the pool already at n is a no-op.
func (q *Queue) SetWorkersTo(n int) {
	if n < 0 {
		n = 0
	}
	q.workersMu.Lock()
	defer q.workersMu.Unlock()

	current := len(q.workers)
	switch {
	case n > current:
		for i := 0; i < n-current; i++ {
			w := worker.New()
			q.workers[w.ID()] = w
		}
	case n < current:
		ids := make([]uuid.UUID, 0, current)
		for id := range q.workers {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		for _, id := range ids[:current-n] {
			q.workers[id].Stop()
			delete(q.workers, id)
		}
	}
}

// Dispatch creates a Job for the named task and schedules it on the
// least-loaded worker (lowest NumberOfTasks, ties broken by iteration
// order). It returns domain.ErrTaskNotFound if no such task is
// registered and domain.ErrNotFound if the pool has no workers.
func (q *Queue) Dispatch(taskName string, payload map[string]any) (*domain.Job, error) {
	q.tasksMu.Lock()
	task, ok := q.tasks[taskName]
	q.tasksMu.Unlock()
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	q.workersMu.Lock()
	var least *worker.Worker
	for _, w := range q.workers {
		if least == nil || w.NumberOfTasks() < least.NumberOfTasks() {
			least = w
		}
	}
	q.workersMu.Unlock()
	if least == nil {
		return nil, domain.ErrNotFound
	}

	job := domain.NewJob(task, payload)

	q.jobsMu.Lock()
	q.jobs[job.ID()] = job
	q.jobsMu.Unlock()

	least.Dispatch(job)
	return job, nil
}

// Cancel requests cancellation of every job this queue has recorded,
// running or not yet started.
func (q *Queue) Cancel() {
	q.jobsMu.Lock()
	defer q.jobsMu.Unlock()
	for _, j := range q.jobs {
		j.Cancel()
	}
}

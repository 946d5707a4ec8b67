package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/dispatchengine/engine/internal/domain"
)

func TestSetWorkersToIsIdempotentAtN(t *testing.T) {
	q := New("test")
	q.SetWorkersTo(3)
	if got := q.NumberOfWorkers(); got != 3 {
		t.Fatalf("expected 3 workers, got %d", got)
	}
	q.SetWorkersTo(3)
	if got := q.NumberOfWorkers(); got != 3 {
		t.Fatalf("expected 3 workers after a no-op scale, got %d", got)
	}
	q.SetWorkersTo(1)
	if got := q.NumberOfWorkers(); got != 1 {
		t.Fatalf("expected 1 worker after scaling down, got %d", got)
	}
	q.SetWorkersTo(5)
	if got := q.NumberOfWorkers(); got != 5 {
		t.Fatalf("expected 5 workers after scaling up, got %d", got)
	}
}

func TestDispatchUnknownTaskFails(t *testing.T) {
	q := New("test")
	q.SetWorkersTo(1)
	_, err := q.Dispatch("missing", nil)
	if err != domain.ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestDispatchWithNoWorkersFails(t *testing.T) {
	q := New("test")
	q.AddTask("noop", func(cancelled func() bool, payload map[string]any) error { return nil })
	_, err := q.Dispatch("noop", nil)
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSingleWorkerFinishesJobsInDispatchOrder(t *testing.T) {
	q := New("test")
	q.SetWorkersTo(1)

	var mu sync.Mutex
	var order []int

	q.AddTask("record", func(cancelled func() bool, payload map[string]any) error {
		n := payload["n"].(int)
		time.Sleep(time.Millisecond)
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
		return nil
	})

	const count = 20
	jobs := make([]*domain.Job, count)
	for i := 0; i < count; i++ {
		job, err := q.Dispatch("record", map[string]any{"n": i})
		if err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
		jobs[i] = job
	}

	deadline := time.Now().Add(2 * time.Second)
	for _, job := range jobs {
		for !job.Finished() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != count {
		t.Fatalf("expected %d jobs to finish, got %d", count, len(order))
	}
	for i, n := range order {
		if n != i {
			t.Fatalf("expected FIFO order on a single worker; position %d held job %d", i, n)
		}
	}
}

func TestQueueCancelMassCancelsRecordedJobs(t *testing.T) {
	q := New("test")
	q.SetWorkersTo(1)

	block := make(chan struct{})
	q.AddTask("slow", func(cancelled func() bool, payload map[string]any) error {
		<-block
		if cancelled() {
			return domain.ErrCancelled
		}
		return nil
	})

	first, err := q.Dispatch("slow", nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	second, err := q.Dispatch("slow", nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	q.Cancel()
	close(block)

	deadline := time.Now().Add(2 * time.Second)
	for (!first.Finished() || !second.Finished()) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if !first.Cancelled() {
		t.Fatalf("expected first job to be cancelled")
	}
	if !second.Cancelled() {
		t.Fatalf("expected second job to be cancelled")
	}
}

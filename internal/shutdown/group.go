// Package shutdown implements cooperative cancellation fan-out for
// every in-flight session: a soft cancel first, and a forced close of
// anything still running after a grace period.
package shutdown

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Grace is how long Shutdown waits between the soft cancel and the
// terminal forced close of every registered sink.
const Grace = 10 * time.Second

type sink struct {
	cancel context.CancelFunc
	close  func()
}

// Group tracks every running session so a shutdown signal can cancel
// them all at once and, failing a clean exit within Grace, force their
// underlying connections closed.
type Group struct {
	mu      sync.Mutex
	sinks   map[int]sink
	nextID  int
	g       *errgroup.Group
	ctx     context.Context
	baseCtx context.Context
}

func New(ctx context.Context) *Group {
	g, gctx := errgroup.WithContext(ctx)
	return &Group{sinks: make(map[int]sink), g: g, ctx: gctx, baseCtx: ctx}
}

// Adapt registers fn as a tracked task: a derived, individually
// cancellable context, and a closer invoked if fn is still running
// when a forced close happens: after the Shutdown grace period, or at
// once on StopNow. closer may be nil.
func (gr *Group) Adapt(fn func(ctx context.Context) error, closer func()) {
	ctx, cancel := context.WithCancel(gr.baseCtx)

	gr.mu.Lock()
	id := gr.nextID
	gr.nextID++
	gr.sinks[id] = sink{cancel: cancel, close: closer}
	gr.mu.Unlock()

	gr.g.Go(func() error {
		defer gr.remove(id)
		return fn(ctx)
	})
}

func (gr *Group) remove(id int) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	delete(gr.sinks, id)
}

// Emit cancels every currently registered task's context. Tasks that
// honor ctx.Done() promptly exit their loop on their own.
func (gr *Group) Emit() {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	for _, s := range gr.sinks {
		s.cancel()
	}
}

// Shutdown emits a soft cancel, waits up to Grace for every task to
// exit on its own, and force-closes whatever sinks remain after that.
func (gr *Group) Shutdown() error {
	gr.Emit()

	done := make(chan error, 1)
	go func() { done <- gr.g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(Grace):
		gr.forceClose()
		return <-done
	}
}

// StopNow cancels every task and force-closes every sink immediately,
// without waiting out Grace. It matches the SIGTERM policy: stop the
// execution context directly rather than negotiate a clean exit.
func (gr *Group) StopNow() {
	gr.Emit()
	gr.forceClose()
}

func (gr *Group) forceClose() {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	for _, s := range gr.sinks {
		if s.close != nil {
			s.close()
		}
	}
}

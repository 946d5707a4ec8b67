// Package state holds the process-wide objects every request needs:
// the compiled router, the named queues, and the signing key. A State
// is constructed once at startup and shared by every Session.
package state

import (
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/dispatchengine/engine/internal/queue"
	"github.com/dispatchengine/engine/internal/router"
)

// State is safe for concurrent use. Queues are created lazily on
// first access so a fresh State can be wired up before any queue
// names are known.
type State struct {
	router *router.Router

	queuesMu sync.Mutex
	queues   map[string]*queue.Queue

	db *gorm.DB // optional; nil when no persistent store is configured

	key string

	running atomic.Bool
	port    atomic.Uint32
}

func New(rt *router.Router, key string, db *gorm.DB) *State {
	return &State{
		router: rt,
		queues: make(map[string]*queue.Queue),
		db:     db,
		key:    key,
	}
}

func (s *State) Router() *router.Router { return s.router }

func (s *State) Key() string { return s.key }

func (s *State) DB() *gorm.DB { return s.db }

func (s *State) Running() bool { return s.running.Load() }

func (s *State) SetRunning(running bool) { s.running.Store(running) }

func (s *State) Port() uint16 { return uint16(s.port.Load()) }

func (s *State) SetPort(port uint16) { s.port.Store(uint32(port)) }

// Queue returns the named queue, creating it on first access.
func (s *State) Queue(name string) *queue.Queue {
	s.queuesMu.Lock()
	defer s.queuesMu.Unlock()
	q, ok := s.queues[name]
	if !ok {
		q = queue.New(name)
		s.queues[name] = q
	}
	return q
}

func (s *State) QueueExists(name string) bool {
	s.queuesMu.Lock()
	defer s.queuesMu.Unlock()
	_, ok := s.queues[name]
	return ok
}

func (s *State) RemoveQueue(name string) bool {
	s.queuesMu.Lock()
	defer s.queuesMu.Unlock()
	if _, ok := s.queues[name]; !ok {
		return false
	}
	delete(s.queues, name)
	return true
}

// Queues returns a snapshot of name -> Queue. Destroying a State never
// implicitly cancels the jobs of its queues; callers that want that
// must call Queue.Cancel explicitly first.
func (s *State) Queues() map[string]*queue.Queue {
	s.queuesMu.Lock()
	defer s.queuesMu.Unlock()
	out := make(map[string]*queue.Queue, len(s.queues))
	for k, v := range s.queues {
		out[k] = v
	}
	return out
}

// internal/realtime/hub.go
package realtime

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type Handler func(Change)

// Hub fans change events out to subscribers. Handlers run on the hub's
// dispatch goroutine one at a time, so a handler never races another.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]subscriber
	nextID uint64
	events chan Change
}

type subscriber struct {
	table string
	fn    Handler
}

type Subscription struct {
	hub *Hub
	id  uint64
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[uint64]subscriber),
		events: make(chan Change, buffer),
	}
}

// Subscribe registers fn for changes on table. An empty table receives every change.
// Resync events reach all subscribers.
func (h *Hub) Subscribe(table string, fn Handler) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.subs[h.nextID] = subscriber{table: table, fn: fn}
	return &Subscription{hub: h, id: h.nextID}
}

func (s *Subscription) Unsubscribe() {
	if s == nil || s.hub == nil {
		return
	}
	s.hub.mu.Lock()
	delete(s.hub.subs, s.id)
	s.hub.mu.Unlock()
}

// Publish queues c for dispatch. It blocks while the queue is full unless ctx ends.
func (h *Hub) Publish(ctx context.Context, c Change) error {
	select {
	case h.events <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches queued changes until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-h.events:
			h.dispatch(c)
		}
	}
}

func (h *Hub) dispatch(c Change) {
	h.mu.RLock()
	targets := make([]Handler, 0, len(h.subs))
	for _, s := range h.subs {
		if s.table == "" || s.table == c.Table || c.Kind == Resync {
			targets = append(targets, s.fn)
		}
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		h.invoke(fn, c)
	}
}

func (h *Hub) invoke(fn Handler, c Change) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"table": c.Table,
				"type":  c.Kind,
				"panic": r,
			}).Error("Realtime handler panicked")
		}
	}()
	fn(c)
}

// internal/cache/list.go
package cache

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/tallerpiolin/inventory-backend/internal/realtime"
)

// List is an ordered in-memory view of one entity collection.
// All methods are safe for concurrent use.
type List[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(*T) uuid.UUID
	cmp   func(a, b T) int
	limit int
}

// New builds a list ordered by cmp. A positive limit caps the list length,
// dropping items from the tail.
func New[T any](id func(*T) uuid.UUID, cmp func(a, b T) int, limit int) *List[T] {
	return &List[T]{id: id, cmp: cmp, limit: limit}
}

// Result describes the effect of merging one change.
type Result[T any] struct {
	Changed bool
	Before  *T
	After   *T
}

func (l *List[T]) Reset(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = slices.Clone(items)
	l.normalize()
}

// Insert adds item unless its id is already present.
func (l *List[T]) Insert(item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(l.id(&item)) >= 0 {
		return false
	}
	l.items = append(l.items, item)
	l.normalize()
	return true
}

// Update replaces a known item and returns the previous value.
func (l *List[T]) Update(item T) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prev T
	i := l.indexOf(l.id(&item))
	if i < 0 {
		return prev, false
	}
	prev = l.items[i]
	l.items[i] = item
	l.normalize()
	return prev, true
}

// Upsert inserts or replaces item. Used after local writes.
func (l *List[T]) Upsert(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexOf(l.id(&item)); i >= 0 {
		l.items[i] = item
	} else {
		l.items = append(l.items, item)
	}
	l.normalize()
}

func (l *List[T]) Remove(id uuid.UUID) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prev T
	i := l.indexOf(id)
	if i < 0 {
		return prev, false
	}
	prev = l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	return prev, true
}

// RemoveFunc deletes every item matching fn and returns how many were removed.
func (l *List[T]) RemoveFunc(fn func(*T) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, func(item T) bool { return fn(&item) })
	return before - len(l.items)
}

// Each calls fn with a pointer to every item under the write lock.
func (l *List[T]) Each(fn func(*T)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		fn(&l.items[i])
	}
}

func (l *List[T]) Get(id uuid.UUID) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var zero T
	i := l.indexOf(id)
	if i < 0 {
		return zero, false
	}
	return l.items[i], true
}

func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

func (l *List[T]) Filter(fn func(*T) bool) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, 0, len(l.items))
	for i := range l.items {
		if fn(&l.items[i]) {
			out = append(out, l.items[i])
		}
	}
	return out
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Apply merges a realtime change: inserts of known ids and
// updates or deletes of unknown ids are ignored.
func (l *List[T]) Apply(c realtime.Change) (Result[T], error) {
	var res Result[T]

	switch c.Kind {
	case realtime.Inserted:
		var item T
		if err := c.DecodeNew(&item); err != nil {
			return res, fmt.Errorf("failed to decode inserted row: %w", err)
		}
		if l.Insert(item) {
			res.Changed = true
			res.After = &item
		}

	case realtime.Updated:
		var item T
		if err := c.DecodeNew(&item); err != nil {
			return res, fmt.Errorf("failed to decode updated row: %w", err)
		}
		if prev, ok := l.Update(item); ok {
			res.Changed = true
			res.Before = &prev
			res.After = &item
		}

	case realtime.Deleted:
		var item T
		if err := c.DecodeOld(&item); err != nil {
			return res, fmt.Errorf("failed to decode deleted row: %w", err)
		}
		if prev, ok := l.Remove(l.id(&item)); ok {
			res.Changed = true
			res.Before = &prev
		}
	}

	return res, nil
}

func (l *List[T]) indexOf(id uuid.UUID) int {
	for i := range l.items {
		if l.id(&l.items[i]) == id {
			return i
		}
	}
	return -1
}

func (l *List[T]) normalize() {
	if l.cmp != nil {
		slices.SortStableFunc(l.items, l.cmp)
	}
	if l.limit > 0 && len(l.items) > l.limit {
		l.items = l.items[:l.limit]
	}
}

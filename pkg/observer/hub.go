// Package observer provides the subscribe/notify primitive shared by the
// storefront state containers.
package observer

import "sync"

// Hub fans a value out to every registered callback. Callbacks run on the
// publishing goroutine in registration order, after the hub lock is released,
// so a callback may subscribe or cancel without deadlocking.
type Hub[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(T)
	order  []uint64
}

// Subscribe registers fn and returns a function that removes it. The returned
// function is safe to call more than once.
func (h *Hub[T]) Subscribe(fn func(T)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[uint64]func(T))
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			for i, candidate := range h.order {
				if candidate == id {
					h.order = append(h.order[:i], h.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers v to every current subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	callbacks := make([]func(T), 0, len(h.order))
	for _, id := range h.order {
		callbacks = append(callbacks, h.subs[id])
	}
	h.mu.RUnlock()

	for _, fn := range callbacks {
		fn(v)
	}
}

// Len reports the number of live subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}

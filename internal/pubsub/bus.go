// Package pubsub is the in-process change bus shared by every store handle
// of one context.
package pubsub

import (
	"sort"
	"sync"
)

// Event announces that Key changed. Value is the bytes the publisher
// committed; it may already be stale on delivery. Origin identifies the
// publishing handle so it can skip its own events.
type Event struct {
	Key    string
	Value  []byte
	Origin string
}

type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Publish delivers ev synchronously to every subscriber in subscription
// order. It must not be called while holding a lock a subscriber may take.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Subscribe registers fn and returns a function that removes it. Calling
// the returned function more than once is harmless.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Len reports the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

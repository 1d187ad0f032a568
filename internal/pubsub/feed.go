package pubsub

import (
	"context"
	"sync"
)

// Feed fans one category of state updates out to subscribers. Each
// subscriber gets its own buffered channel; a slow subscriber drops updates
// rather than blocking the publisher.
type Feed[T any] struct {
	mu      sync.Mutex
	subs    map[int]chan T
	nextID  int
	buffer  int
	last    T
	hasLast bool
	closed  bool
}

// NewFeed creates a feed with the given per-subscriber buffer size.
func NewFeed[T any](buffer int) *Feed[T] {
	if buffer <= 0 {
		buffer = 8
	}
	return &Feed[T]{subs: make(map[int]chan T), buffer: buffer}
}

// Subscribe registers a subscriber. The latest published value, if any, is
// delivered first. The subscription is removed and its channel closed when
// ctx is cancelled or the feed is closed.
func (f *Feed[T]) Subscribe(ctx context.Context) <-chan T {
	f.mu.Lock()
	ch := make(chan T, f.buffer)
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	if f.hasLast {
		ch <- f.last
	}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}()

	return ch
}

// Publish delivers a value to all current subscribers.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.last = v
	f.hasLast = true
	for _, ch := range f.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Last returns the most recently published value.
func (f *Feed[T]) Last() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.hasLast
}

// Close tears down all subscriptions. Further publishes are dropped.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

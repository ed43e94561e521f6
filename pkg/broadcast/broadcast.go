// Package broadcast publishes a single current value to any number of
// subscribers.
//
// A Broadcaster holds the latest published value. Subscribing returns that
// value together with a cleanup function; every later Publish reaches the
// subscriber until the cleanup runs. Only the owner of the Broadcaster can
// publish: hand out the Source interface to everybody else.
package broadcast

import (
	"context"
	"sync"
)

// Source is the subscribe-only side of a Broadcaster.
type Source[T any] interface {
	// Current returns the latest published value.
	Current() T

	// Subscribe registers fn for every future value and returns the
	// current one. The returned function unsubscribes; it is idempotent.
	Subscribe(fn func(T)) (T, func())

	// Watch streams values until ctx is done. The first value received is
	// the current one. A slow reader only sees the latest value.
	Watch(ctx context.Context) <-chan T
}

// Broadcaster is a value container with change notification.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[uint64]func(T)
	nextID uint64
}

// New creates a Broadcaster holding initial.
func New[T any](initial T) *Broadcaster[T] {
	return &Broadcaster[T]{
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Publish replaces the current value and notifies every subscriber on the
// calling goroutine. Subscribers must not block.
func (b *Broadcaster[T]) Publish(v T) {
	// Notify outside the lock so a subscriber may call Current or cancel.
	b.mu.Lock()
	b.value = v
	subs := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Current returns the latest published value.
func (b *Broadcaster[T]) Current() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Subscribe registers fn and returns the current value.
func (b *Broadcaster[T]) Subscribe(fn func(T)) (T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[id] = fn

	var once sync.Once
	return b.value, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Len returns the number of live subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Watch streams values until ctx is done, then closes the channel.
func (b *Broadcaster[T]) Watch(ctx context.Context) <-chan T {
	out := make(chan T)
	notify := make(chan struct{}, 1)

	var (
		mu     sync.Mutex
		latest T
	)
	first, cancel := b.Subscribe(func(v T) {
		mu.Lock()
		latest = v
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer cancel()

		pending, has := first, true
		for {
			if has {
				select {
				case out <- pending:
					has = false
				case <-notify:
					mu.Lock()
					pending = latest
					mu.Unlock()
				case <-ctx.Done():
					return
				}
				continue
			}

			select {
			case <-notify:
				mu.Lock()
				pending = latest
				mu.Unlock()
				has = true
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

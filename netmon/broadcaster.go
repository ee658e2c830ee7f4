// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package netmon

import (
	"log/slog"
	"sync"
)

// Listener receives connectivity transitions
type Listener func(connected bool)

// Broadcaster is a registry of listeners keyed by registration handle.
// It does not own the listeners: unsubscribing only drops the handle.
type Broadcaster struct {
	logger *slog.Logger

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64
}

// NewBroadcaster creates an empty registry. A nil logger falls back to slog.Default().
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		logger:    logger,
		listeners: make(map[uint64]Listener),
	}
}

// Add registers fn and returns its unsubscribe function. Unsubscribe is idempotent.
func (b *Broadcaster) Add(fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.listeners[id]; !ok {
		return
	}
	delete(b.listeners, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered listeners
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Notify calls every listener in registration order, outside the lock.
// A panicking listener is logged and does not stop the others.
func (b *Broadcaster) Notify(connected bool) {
	b.mu.Lock()
	snapshot := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		snapshot = append(snapshot, b.listeners[id])
	}
	b.mu.Unlock()

	for _, fn := range snapshot {
		b.call(fn, connected)
	}
}

func (b *Broadcaster) call(fn Listener, connected bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Connectivity listener panicked", "panic", r)
		}
	}()
	fn(connected)
}

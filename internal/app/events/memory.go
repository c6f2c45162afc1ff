package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus used when Redis is not configured
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[int64]map[chan Event]struct{}
	closed bool
}

// NewMemoryBus creates an empty in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int64]map[chan Event]struct{})}
}

// Publish delivers e to current subscribers of the job without blocking
func (b *MemoryBus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[e.JobID] {
		select {
		case ch <- e:
		default:
			droppedTotal.WithLabelValues("memory").Inc()
		}
	}
	publishedTotal.WithLabelValues("memory", e.Type).Inc()
	return nil
}

// Subscribe registers for events of one job. The returned func unsubscribes
// and closes the channel; it is also called when ctx ends.
func (b *MemoryBus) Subscribe(ctx context.Context, jobID int64) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}, nil
	}
	if b.subs[jobID] == nil {
		b.subs[jobID] = make(map[chan Event]struct{})
	}
	b.subs[jobID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if set, ok := b.subs[jobID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(b.subs, jobID)
				}
			}
			b.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch, unsubscribe, nil
}

// Close drops every subscriber
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, set := range b.subs {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, id)
	}
	b.closed = true
	return nil
}

package realtime

import "sync"

// Broadcaster fans events out to subscribers without blocking the publisher.
type Broadcaster[E any] struct {
	mu     sync.Mutex
	subs   map[chan E]struct{}
	buffer int
}

// NewBroadcaster creates an empty broadcaster whose subscriber channels
// hold up to buffer pending events.
func NewBroadcaster[E any](buffer int) *Broadcaster[E] {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster[E]{
		subs:   make(map[chan E]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its event channel.
func (b *Broadcaster[E]) Subscribe() chan E {
	ch := make(chan E, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster[E]) Unsubscribe(ch chan E) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to all subscribers.
func (b *Broadcaster[E]) Publish(event E) {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Lagging subscriber; it misses this event.
		}
	}
	b.mu.Unlock()
}

// Close unsubscribes everyone.
func (b *Broadcaster[E]) Close() {
	b.mu.Lock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Broadcaster[E]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

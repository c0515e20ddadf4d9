package events

import (
	"log/slog"
	"sync"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

// Router fans events out from the scanner to the TUI, sinks and the daemon.
// Delivery never blocks the producer: a full subscriber loses the event.
type Router struct {
	subscribers []chan Event
	bufferSize  int
	onDrop      func(EventType)
	mu          sync.RWMutex
	closed      bool
}

// NewRouter creates a router. If bufferSize is 0 or negative,
// DefaultBufferSize is used.
func NewRouter(bufferSize int) *Router {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router{bufferSize: bufferSize}
}

// OnDrop registers fn to be called whenever an event is dropped.
func (r *Router) OnDrop(fn func(EventType)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDrop = fn
}

// Emit publishes an event to all subscribers. It is safe to call
// concurrently and after Close, where it is a no-op.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			// Tick snapshots are superseded by the next one; don't warn.
			if event.Type() != EventScanTick {
				slog.Warn("event dropped: subscriber channel full",
					"event_type", event.Type(),
					"source", event.Source(),
				)
			}
			if r.onDrop != nil {
				r.onDrop(event.Type())
			}
		}
	}
}

// Subscribe returns a channel that receives all emitted events.
// The returned channel is closed when the router is closed.
func (r *Router) Subscribe() <-chan Event {
	return r.SubscribeBuffered(r.bufferSize)
}

// SubscribeBuffered returns a channel with the specified buffer size.
func (r *Router) SubscribeBuffered(size int) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Event, size)
	if r.closed {
		close(ch)
		return ch
	}
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// It is safe to call with a channel that was never subscribed.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels. It is safe to call multiple times.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
}

package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler handles a delivered event.
type Handler func(Event)

// DefaultCapacity is the ring buffer size when none is configured.
const DefaultCapacity = 50

const defaultQueueSize = 256

// Bus is a bounded in-memory publish/subscribe channel. Publish never blocks
// the caller: delivery runs on a single goroutine fed by a buffered queue,
// which also preserves publish order for subscribers of the same type. The
// last events are retained in a fixed-capacity ring, oldest evicted first.
type Bus struct {
	mu        sync.RWMutex
	listeners map[EventType][]Handler
	recent    []Event
	capacity  int

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

// NewBus creates a bus and starts its delivery goroutine.
func NewBus(capacity, queueSize int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	b := &Bus{
		listeners: make(map[EventType][]Handler),
		recent:    make([]Event, 0, capacity),
		capacity:  capacity,
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
	go b.deliver()
	return b
}

// Publish stamps and records the event, then hands it to the delivery
// goroutine. Returns the stored event. If the delivery queue is full the
// event is still recorded in the ring but dropped for subscribers; the bus
// is an observability convenience, not a durable log.
func (b *Bus) Publish(eventType EventType, payload interface{}) Event {
	ev := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.Lock()
	b.recent = append(b.recent, ev)
	if len(b.recent) > b.capacity {
		b.recent = b.recent[len(b.recent)-b.capacity:]
	}
	b.mu.Unlock()

	select {
	case b.queue <- ev:
	default:
	}
	return ev
}

// Subscribe registers a handler invoked once per matching future publish.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventType] = append(b.listeners[eventType], handler)
}

// Recent returns a snapshot of the ring buffer, oldest first.
func (b *Bus) Recent() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.recent))
	copy(out, b.recent)
	return out
}

// Close stops the delivery goroutine. Queued events are dropped.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bus) deliver() {
	for {
		select {
		case <-b.done:
			return
		case ev := <-b.queue:
			b.mu.RLock()
			handlers := append([]Handler{}, b.listeners[ev.Type]...)
			b.mu.RUnlock()
			for _, handler := range handlers {
				b.invoke(handler, ev)
			}
		}
	}
}

// invoke shields the delivery loop from subscriber panics.
func (b *Bus) invoke(handler Handler, ev Event) {
	defer func() {
		_ = recover()
	}()
	handler(ev)
}

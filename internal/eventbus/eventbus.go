package eventbus

import (
	"sync"

	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"
)

// Handler receives a published event. Delivery is at most once and only to
// handlers subscribed at publish time.
type Handler func(event entity.Event)

// defaultRingSize bounds the in-memory history kept for inspection.
const defaultRingSize = 128

// Bus is an in-process publish/subscribe bus decoupling pipeline stages from
// observers. A panicking handler is isolated and does not affect delivery to
// the remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[entity.EventType]map[uint64]Handler
	nextID   uint64
	ring     []entity.Event
	ringPos  int
	logger   *logger.Logger
}

// Subscription identifies a registered handler so it can be removed later.
type Subscription struct {
	eventType entity.EventType
	id        uint64
}

// New creates an event bus with a bounded event history.
func New(log *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[entity.EventType]map[uint64]Handler),
		ring:     make([]entity.Event, 0, defaultRingSize),
		logger:   log,
	}
}

// Subscribe registers a handler for the given event type.
func (b *Bus) Subscribe(eventType entity.EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]Handler)
	}
	b.nextID++
	b.handlers[eventType][b.nextID] = handler
	return Subscription{eventType: eventType, id: b.nextID}
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[sub.eventType], sub.id)
}

// Publish delivers the event to every handler currently subscribed to its
// type. Delivery is fire and forget: there is no retry and no guarantee the
// event is retained beyond the inspection ring.
func (b *Bus) Publish(event entity.Event) {
	b.mu.Lock()
	b.record(event)
	snapshot := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		snapshot = append(snapshot, h)
	}
	b.mu.Unlock()

	for _, h := range snapshot {
		b.dispatch(h, event)
	}
}

func (b *Bus) dispatch(h Handler, event entity.Event) {
	defer func() {
		if r := recover(); r != nil {
			if b.logger != nil {
				b.logger.Error("Event handler panicked",
					logger.StringField("event_type", string(event.Type)),
					logger.Field("panic", r))
			}
		}
	}()
	h(event)
}

// record appends to the bounded ring. Caller must hold the write lock.
func (b *Bus) record(event entity.Event) {
	if len(b.ring) < defaultRingSize {
		b.ring = append(b.ring, event)
		return
	}
	b.ring[b.ringPos] = event
	b.ringPos = (b.ringPos + 1) % defaultRingSize
}

// Recent returns the retained events, oldest first.
func (b *Bus) Recent() []entity.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]entity.Event, 0, len(b.ring))
	if len(b.ring) < defaultRingSize {
		out = append(out, b.ring...)
		return out
	}
	out = append(out, b.ring[b.ringPos:]...)
	out = append(out, b.ring[:b.ringPos]...)
	return out
}

// HandlerCount reports how many handlers are subscribed to an event type.
func (b *Bus) HandlerCount(eventType entity.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

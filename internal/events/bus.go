package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type subscription struct {
	id uint64
	fn Handler
}

// Bus is an in-process Publisher. Subscribers of a topic are called in
// registration order, followed by the SubscribeAll handlers.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[Topic][]subscription
	all    []subscription
	log    *zap.Logger
	now    func() time.Time
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		topics: make(map[Topic][]subscription),
		log:    log,
		now:    time.Now,
	}
}

// Subscribe registers fn for topic and returns a func that removes it.
func (b *Bus) Subscribe(topic Topic, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.topics[topic] = remove(b.topics[topic], id)
	}
}

// SubscribeAll registers fn for every topic.
func (b *Bus) SubscribeAll(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

func (b *Bus) Publish(ctx context.Context, topic Topic, payload Payload) {
	ev := Event{Topic: topic, Payload: payload, OccurredAt: b.now().UTC()}

	b.mu.RLock()
	handlers := make([]subscription, 0, len(b.topics[topic])+len(b.all))
	handlers = append(handlers, b.topics[topic]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, h.fn, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("topic", string(ev.Topic)),
				zap.String("request_id", ev.Payload.RequestID()),
				zap.Any("panic", r),
			)
		}
	}()
	fn(ctx, ev)
}

func remove(subs []subscription, id uint64) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

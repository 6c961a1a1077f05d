package events

import "context"

type pending struct {
	topic   Topic
	payload Payload
}

// Buffer holds the events and follow-up work of a unit of work until it
// commits. A Buffer belongs to one goroutine.
type Buffer struct {
	events []pending
	hooks  []func(ctx context.Context)
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Publish queues an event; it satisfies Publisher.
func (b *Buffer) Publish(_ context.Context, topic Topic, payload Payload) {
	b.events = append(b.events, pending{topic: topic, payload: payload})
}

// AfterCommit queues fn to run on Flush, before the events go out.
func (b *Buffer) AfterCommit(fn func(ctx context.Context)) {
	b.hooks = append(b.hooks, fn)
}

// Flush runs the hooks, forwards the queued events to p in order and
// empties the buffer.
func (b *Buffer) Flush(ctx context.Context, p Publisher) {
	hooks, evs := b.hooks, b.events
	b.Discard()

	for _, fn := range hooks {
		fn(ctx)
	}
	for _, ev := range evs {
		p.Publish(ctx, ev.topic, ev.payload)
	}
}

// Discard drops everything queued, as after a rollback.
func (b *Buffer) Discard() {
	b.events = nil
	b.hooks = nil
}

func (b *Buffer) Len() int {
	return len(b.events)
}

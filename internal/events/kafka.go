package events

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds an asynchronous writer for topic. Failed batches are
// logged and dropped.
func NewKafkaWriter(brokers []string, topic string, log *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn("dropped exchange events", zap.Int("count", len(msgs)), zap.Error(err))
			}
		},
	}
}

// KafkaForwarder mirrors bus events onto a Kafka topic as JSON.
type KafkaForwarder struct {
	writer MessageWriter
	log    *zap.Logger
}

func NewKafkaForwarder(w MessageWriter, log *zap.Logger) *KafkaForwarder {
	if w == nil {
		panic("kafka writer is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaForwarder{writer: w, log: log}
}

// Attach subscribes the forwarder to every topic of bus.
func (f *KafkaForwarder) Attach(bus *Bus) (unsubscribe func()) {
	return bus.SubscribeAll(f.Handle)
}

func (f *KafkaForwarder) Handle(ctx context.Context, ev Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		f.log.Error("failed to encode event", zap.String("topic", string(ev.Topic)), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(ev.Payload.RequestID()),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "topic", Value: []byte(ev.Topic)},
		},
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		f.log.Warn("failed to forward event",
			zap.String("topic", string(ev.Topic)),
			zap.String("request_id", ev.Payload.RequestID()),
			zap.Error(err),
		)
	}
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

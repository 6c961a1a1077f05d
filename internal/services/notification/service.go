package notification

import (
	"context"
	"fmt"

	"handoff/internal/events"

	"go.uber.org/zap"
)

// Message is one notice addressed to a single user.
type Message struct {
	UserID string
	Topic  events.Topic
	Text   string
	ChatID string
}

// Sender delivers a message to its recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of a delivery channel.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("notify user",
		zap.String("user_id", msg.UserID),
		zap.String("topic", string(msg.Topic)),
		zap.String("chat_id", msg.ChatID),
		zap.String("text", msg.Text),
	)
	return nil
}

// Service turns exchange events into notices for donors and collectors.
type Service struct {
	sender Sender
	log    *zap.Logger
}

// NewService creates a new notification service.
func NewService(sender Sender, log *zap.Logger) *Service {
	if sender == nil {
		panic("sender is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{sender: sender, log: log}
}

// Attach subscribes the service to every topic on bus.
func (s *Service) Attach(bus *events.Bus) (unsubscribe func()) {
	return bus.SubscribeAll(s.Handle)
}

func (s *Service) Handle(ctx context.Context, ev events.Event) {
	for _, msg := range compose(ev) {
		if err := s.sender.Send(ctx, msg); err != nil {
			s.log.Warn("failed to send notification",
				zap.String("user_id", msg.UserID),
				zap.String("topic", string(msg.Topic)),
				zap.Error(err),
			)
		}
	}
}

func compose(ev events.Event) []Message {
	switch p := ev.Payload.(type) {
	case events.ClaimRequested:
		r := p.Request
		return []Message{{
			UserID: r.DonorID,
			Topic:  ev.Topic,
			Text:   fmt.Sprintf("%s would like to collect %q", nameOr(r.CollectorName, "A collector"), r.ItemTitle),
		}}
	case events.ClaimApproved:
		r := p.Request
		return []Message{
			{UserID: r.CollectorID, Topic: ev.Topic, ChatID: p.ChatID,
				Text: fmt.Sprintf("Your request for %q was approved", r.ItemTitle)},
			{UserID: r.DonorID, Topic: ev.Topic, ChatID: p.ChatID,
				Text: fmt.Sprintf("You approved %s for %q", nameOr(r.CollectorName, "the collector"), r.ItemTitle)},
		}
	case events.ClaimDeclined:
		r := p.Request
		return []Message{{
			UserID: r.CollectorID,
			Topic:  ev.Topic,
			Text:   fmt.Sprintf("Your request for %q was not accepted", r.ItemTitle),
		}}
	case events.PartnerReady:
		r := p.Request
		text := fmt.Sprintf("%q is ready for pickup", r.ItemTitle)
		for _, c := range p.QRCodes {
			if c.DropOffLocation != "" {
				text = fmt.Sprintf("%q is ready for pickup at %s", r.ItemTitle, c.DropOffLocation)
				break
			}
		}
		return []Message{{UserID: r.CollectorID, Topic: ev.Topic, Text: text}}
	case events.CollectionConfirmed:
		r := p.Request
		return []Message{
			{UserID: r.DonorID, Topic: ev.Topic,
				Text: fmt.Sprintf("%q was collected. You earned %d points", r.ItemTitle, p.RewardPoints)},
			{UserID: r.CollectorID, Topic: ev.Topic,
				Text: fmt.Sprintf("Enjoy %q", r.ItemTitle)},
		}
	}
	return nil
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

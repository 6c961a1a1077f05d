// Package events carries exchange lifecycle notifications from the services
// to chat, notification and broker collaborators. Delivery is synchronous,
// at-most-once and never durable.
package events

import (
	"context"
	"time"

	"handoff/internal/models"

	"github.com/google/uuid"
)

type Topic string

const (
	TopicClaimRequested      Topic = "claim.requested"
	TopicClaimApproved       Topic = "claim.approved"
	TopicClaimDeclined       Topic = "claim.declined"
	TopicCollectionConfirmed Topic = "collection.confirmed"
	TopicPartnerReady        Topic = "partner.ready"
)

// Event is one published notification.
type Event struct {
	Topic      Topic     `json:"topic"`
	Payload    Payload   `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Payload is implemented by every event body. The id keys broker messages
// so all events of one request land on the same partition.
type Payload interface {
	RequestID() string
}

type ClaimRequested struct {
	Request models.ClaimRequest `json:"request"`
}

type ClaimApproved struct {
	Request models.ClaimRequest `json:"request"`
	ChatID  string              `json:"chatId"`
}

type ClaimDeclined struct {
	Request models.ClaimRequest `json:"request"`
}

type CollectionConfirmed struct {
	Request      models.ClaimRequest `json:"request"`
	RewardPoints int                 `json:"rewardPoints"`
}

// PartnerReady is sent once the donor has dropped the item off.
type PartnerReady struct {
	Request models.ClaimRequest `json:"request"`
	QRCodes []models.QRCode     `json:"qrCodes"`
}

func (p ClaimRequested) RequestID() string      { return p.Request.ID }
func (p ClaimApproved) RequestID() string       { return p.Request.ID }
func (p ClaimDeclined) RequestID() string       { return p.Request.ID }
func (p CollectionConfirmed) RequestID() string { return p.Request.ID }
func (p PartnerReady) RequestID() string        { return p.Request.ID }

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, payload Payload)
}

// Handler consumes one event. Handlers run on the publishing goroutine.
type Handler func(ctx context.Context, ev Event)

var chatNamespace = uuid.MustParse("6f1c2a0e-5d1b-4c7e-9a55-3b8f0c6d2e41")

// ChatID derives the chat room shared by a donor and a collector about one
// item. The same triple always yields the same id.
func ChatID(itemID, donorID, collectorID string) string {
	return uuid.NewSHA1(chatNamespace, []byte(itemID+"\x00"+donorID+"\x00"+collectorID)).String()
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"handoff/internal/models"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaForwarder_KeysByRequest(t *testing.T) {
	w := new(MockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).([]kafka.Message)...) }).
		Return(nil)

	bus := NewBus(nil)
	NewKafkaForwarder(w, nil).Attach(bus)

	bus.Publish(context.Background(), TopicCollectionConfirmed, CollectionConfirmed{
		Request:      models.ClaimRequest{ID: "r1", ItemID: "item-1"},
		RewardPoints: 25,
	})

	require.Len(t, sent, 1)
	assert.Equal(t, "r1", string(sent[0].Key))

	var body struct {
		Topic   string `json:"topic"`
		Payload struct {
			RewardPoints int `json:"rewardPoints"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(sent[0].Value, &body))
	assert.Equal(t, "collection.confirmed", body.Topic)
	assert.Equal(t, 25, body.Payload.RewardPoints)
	w.AssertExpectations(t)
}

func TestKafkaForwarder_DropsOnWriteError(t *testing.T) {
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	core, logs := observer.New(zap.WarnLevel)
	f := NewKafkaForwarder(w, zap.New(core))

	assert.NotPanics(t, func() {
		f.Handle(context.Background(), Event{Topic: TopicClaimRequested, Payload: requested("r1")})
	})
	assert.Equal(t, 1, logs.FilterMessage("failed to forward event").Len())
}

func TestNewKafkaForwarder_NilWriter(t *testing.T) {
	assert.Panics(t, func() { NewKafkaForwarder(nil, nil) })
}

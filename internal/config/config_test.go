package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QR_PAIR_TTL", "")
	t.Setenv("REWARD_POINTS", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()

	assert.Equal(t, 48*time.Hour, cfg.Exchange.PairTTL)
	assert.Equal(t, 24*time.Hour, cfg.Exchange.StandaloneTTL)
	assert.Equal(t, 25, cfg.Exchange.RewardPoints)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestGetDurationEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "valid", value: "36h", want: 36 * time.Hour},
		{name: "garbage falls back", value: "soon", want: time.Hour},
		{name: "negative falls back", value: "-5m", want: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TTL", tt.value)
			assert.Equal(t, tt.want, GetDurationEnv("TEST_TTL", time.Hour))
		})
	}
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("TEST_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, GetListEnv("TEST_BROKERS"))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "RESERVATION_TTL_SECONDS", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3003", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Inventory.ReservationTTL)
	assert.Equal(t, 5*time.Minute, cfg.Inventory.SweepInterval)
	assert.Equal(t, 10, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, 90, cfg.Inventory.ForecastLookbackDays)
	assert.Equal(t, time.Hour, cfg.Inventory.CacheTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "inventory-events", cfg.Kafka.TopicEvents)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("RESERVATION_TTL_SECONDS", "60")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Inventory.ReservationTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

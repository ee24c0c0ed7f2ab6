package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	_ = Load()

	assert.Equal(t, "0 0 * * *", InventoryCron())
	assert.Equal(t, 30*time.Minute, AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, RefreshTokenTTL())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	_ = Load()
	t.Setenv("QUEUE_WORKERS", "4")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")

	assert.Equal(t, 4, QueueWorkers())
	assert.Equal(t, []string{"a:9092", "b:9092"}, KafkaBrokers())
}

func TestTypedHelpersFallBack(t *testing.T) {
	_ = Load()
	Set("BROKEN_INT", "abc")
	Set("BROKEN_DURATION", "soon")

	assert.Equal(t, 7, Int("BROKEN_INT", 7))
	assert.Equal(t, time.Second, Duration("BROKEN_DURATION", time.Second))
}

func TestDatabaseDriverRejectsUnknown(t *testing.T) {
	_ = Load()
	t.Setenv("DB_DRIVER", "oracle")

	assert.Equal(t, "sqlite", DatabaseDriver())
}

func TestInventoryLocationFallsBackToUTC(t *testing.T) {
	_ = Load()
	t.Setenv("INVENTORY_TIMEZONE", "Nowhere/Land")

	assert.Equal(t, time.UTC, InventoryLocation())
}

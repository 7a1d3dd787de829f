package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, 50, cfg.MySQLMaxOpenConns)
	assert.Equal(t, 25, cfg.MySQLMaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.MySQLConnMaxLifetime)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, 100, cfg.RedisPoolSize)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "marketplace.orders", cfg.EventsTopic)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 50, cfg.CartMaxItems)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(envOf(map[string]string{
		"HTTP_ADDR":       ":9000",
		"KAFKA_BROKERS":   " k1:9092, ,k2:9092 ",
		"CART_MAX_ITEMS":  "5",
		"REQUEST_TIMEOUT": "750ms",
		"LOG_LEVEL":       "debug",
		"MIGRATE":         "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5, cfg.CartMaxItems)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.Migrate)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := map[string]string{
		"CART_MAX_ITEMS":  "lots",
		"REDIS_POOL_SIZE": "-1",
		"IDEMPOTENCY_TTL": "1 day",
		"LOG_LEVEL":       "loud",
		"MIGRATE":         "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := LoadFrom(envOf(map[string]string{key: value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

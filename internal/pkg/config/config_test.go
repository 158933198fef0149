package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data/orders.db", cfg.DBPath)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.False(t, cfg.Orders.DecrementStock)
	assert.Equal(t, 10, cfg.Orders.LowStockThreshold)
	assert.False(t, cfg.OTel.Enabled)
	assert.Equal(t, "order-service", cfg.OTel.ServiceName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("ORDERS_DECREMENT_STOCK", "true")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("REDIS_ADDR", "redis-cache:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Orders.DecrementStock)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "redis-cache:6379", cfg.RedisAddr)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadRejectsNegativeThreshold(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOW_STOCK_THRESHOLD", "-1")

	_, err := Load()
	assert.Error(t, err)
}

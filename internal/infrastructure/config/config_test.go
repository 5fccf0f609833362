package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.False(t, cfg.OpenRouter.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Tracker.CompleteTTL)
	assert.Equal(t, 45*time.Second, cfg.Tracker.StaleAfter)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Contains(t, cfg.Generation.EnhanceURL, "{recipeId}")
	assert.Equal(t, time.Second, cfg.DedupWindow)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-1234567890")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("APP_QUEUE_WORKERS", "8")
	t.Setenv("APP_TRACKER_STALE_AFTER", "1m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.OpenRouter.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 8, cfg.Queue.Workers)
	assert.Equal(t, time.Minute, cfg.Tracker.StaleAfter)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-o...7890", maskAPIKey("sk-or-1234567890"))
}

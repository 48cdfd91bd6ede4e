package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8001", cfg.Backend.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "seller_scanner", cfg.Database.Name)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Scanner.RateLimitMin)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scanner.RateLimitMax)
	assert.Equal(t, 100, cfg.Scanner.MaxBatch)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PYTHON_BACKEND_URL", "http://ai.internal:8001")
	t.Setenv("AI_TIMEOUT_SECONDS", "45")
	t.Setenv("SCANNER_MAX_BATCH", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://ai.internal:8001", cfg.Backend.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 25, cfg.Scanner.MaxBatch)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8082, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero timeout", func(t *testing.T) {
		cfg := base()
		cfg.Backend.Timeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing database name", func(t *testing.T) {
		cfg := base()
		cfg.Database.Name = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty backend URL is allowed", func(t *testing.T) {
		cfg := base()
		cfg.Backend.BaseURL = ""
		assert.NoError(t, cfg.Validate())
	})
}

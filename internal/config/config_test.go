package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "memory", cfg.App.EventBus)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 20, cfg.Ai.HistoryLimit)
	assert.Equal(t, 50, cfg.Ai.SummaryHistoryLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8081")
	t.Setenv("GO_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CHAT_HISTORY_LIMIT", "8")
	t.Setenv("LLM_REQUEST_TIMEOUT", "15s")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "8081", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Ai.HistoryLimit)
	assert.Equal(t, 15*time.Second, cfg.Ai.RequestTimeout)
	assert.Equal(t, "sk-test", cfg.Ai.LLMAPIKey)
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg := Load()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJwtSecret)

	t.Setenv("JWT_SECRET", "a-long-enough-signing-key")
	cfg = Load()
	assert.NoError(t, cfg.Validate())
}

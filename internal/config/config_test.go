package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	// Neutralize ambient environment so defaults are actually exercised.
	for _, key := range []string{
		"HOST", "PORT", "PROMPTFORGE_SERVER_HOST", "PROMPTFORGE_SERVER_PORT",
		"GENERATIVE_API_KEY", "TOGETHER_API_KEY", "VOICE_AGENT_BASE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)

	assert.Equal(t, "together", cfg.Generative.Provider)
	assert.Equal(t, "Qwen/Qwen3-Next-80B-A3B-Instruct", cfg.Generative.Model)
	assert.Equal(t, 512, cfg.Generative.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Generative.Temperature, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.Generative.Timeout)

	assert.Equal(t, 5*time.Second, cfg.VoiceMetrics.Timeout)
	assert.False(t, cfg.IsVoiceMetricsConfigured())

	assert.Equal(t, "data/objective_rules.json", cfg.Objectives.RulesPath)

	assert.InDelta(t, 0.08, cfg.Score.BaseScore, 1e-9)
	assert.InDelta(t, 0.6, cfg.Score.MaxTotal, 1e-9)
	assert.True(t, cfg.Score.EnableObjectiveMatch)
	assert.True(t, cfg.Score.EnableConversionDelta)
}

func TestLoadHonorsOverrides(t *testing.T) {
	t.Setenv("PROMPTFORGE_SERVER_PORT", "9100")
	t.Setenv("GENERATIVE_API_KEY", "secret")
	t.Setenv("GENERATIVE_TIMEOUT_SECONDS", "15")
	t.Setenv("VOICE_AGENT_BASE_URL", "http://agent:5005")
	t.Setenv("SCORE_MAX_TOTAL", "0.8")
	t.Setenv("SCORE_ENABLE_CONVERSION_DELTA", "false")

	cfg := Load()

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Generative.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Generative.Timeout)
	assert.True(t, cfg.IsVoiceMetricsConfigured())
	assert.InDelta(t, 0.8, cfg.Score.MaxTotal, 1e-9)
	assert.False(t, cfg.Score.EnableConversionDelta)
}

func TestLoadFallbackKeys(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://fallback:5432/db")
	t.Setenv("TOGETHER_API_KEY", "together-key")

	cfg := Load()

	assert.Equal(t, "postgres://fallback:5432/db", cfg.Database.URL)
	assert.Equal(t, "together-key", cfg.Generative.APIKey)
}

func TestLoadPrimaryKeyWinsOverFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://fallback:5432/db")
	t.Setenv("PROMPTFORGE_POSTGRES_URL", "postgres://primary:5432/db")

	cfg := Load()
	assert.Equal(t, "postgres://primary:5432/db", cfg.Database.URL)
}

func TestGetEnvDurationAcceptsGoSyntaxAndSeconds(t *testing.T) {
	t.Setenv("TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "30")
	assert.Equal(t, 30*time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "garbage")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
}

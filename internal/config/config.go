// Package config loads the process-wide configuration from the environment
// once at startup. Components receive the relevant section by reference and
// never read the environment themselves.
package config

import (
	"time"

	"github.com/voxlab/promptforge/internal/scoring"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Generative   GenerativeConfig
	VoiceMetrics VoiceMetricsConfig
	Objectives   ObjectivesConfig
	Score        scoring.Config
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL string
}

// GenerativeConfig holds the chat-completions endpoint configuration.
// An empty APIKey switches the client into deterministic mock mode.
type GenerativeConfig struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// VoiceMetricsConfig points at the voice agent whose /metrics endpoint
// supplies conversion snapshots. An empty BaseURL disables the fetch.
type VoiceMetricsConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ObjectivesConfig struct {
	RulesPath string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           getEnvWithFallback("PROMPTFORGE_SERVER_HOST", "HOST", "0.0.0.0"),
			Port:           getEnvIntWithFallback("PROMPTFORGE_SERVER_PORT", "PORT", 8000),
			AllowedOrigins: []string{getEnv("PROMPTFORGE_ALLOWED_ORIGINS", "*")},
		},
		Database: DatabaseConfig{
			URL: getEnvWithFallback("PROMPTFORGE_POSTGRES_URL", "DATABASE_URL", ""),
		},
		Generative: GenerativeConfig{
			Provider:    getEnv("GENERATIVE_PROVIDER", "together"),
			Endpoint:    getEnv("GENERATIVE_ENDPOINT", "https://api.together.xyz/v1/chat/completions"),
			APIKey:      getEnvWithFallback("GENERATIVE_API_KEY", "TOGETHER_API_KEY", ""),
			Model:       getEnv("GENERATIVE_MODEL", "Qwen/Qwen3-Next-80B-A3B-Instruct"),
			MaxTokens:   getEnvInt("GENERATIVE_MAX_TOKENS", 512),
			Temperature: getEnvFloat("GENERATIVE_TEMPERATURE", 0.7),
			Timeout:     getEnvDuration("GENERATIVE_TIMEOUT_SECONDS", 60*time.Second),
		},
		VoiceMetrics: VoiceMetricsConfig{
			BaseURL: getEnv("VOICE_AGENT_BASE_URL", ""),
			Timeout: getEnvDuration("VOICE_METRICS_TIMEOUT", 5*time.Second),
		},
		Objectives: ObjectivesConfig{
			RulesPath: getEnv("OBJECTIVE_RULES_PATH", "data/objective_rules.json"),
		},
		Score: loadScoreConfig(),
	}
}

func loadScoreConfig() scoring.Config {
	defaults := scoring.DefaultConfig()
	return scoring.Config{
		BaseScore:             getEnvFloat("SCORE_BASE", defaults.BaseScore),
		MaxTotal:              getEnvFloat("SCORE_MAX_TOTAL", defaults.MaxTotal),
		FailureUniqueWeight:   getEnvFloat("SCORE_FAILURE_UNIQUE_WEIGHT", defaults.FailureUniqueWeight),
		FailureUniqueCap:      getEnvFloat("SCORE_FAILURE_UNIQUE_CAP", defaults.FailureUniqueCap),
		FailureVolumeWeight:   getEnvFloat("SCORE_FAILURE_VOLUME_WEIGHT", defaults.FailureVolumeWeight),
		FailureVolumeCap:      getEnvFloat("SCORE_FAILURE_VOLUME_CAP", defaults.FailureVolumeCap),
		ObjectiveWeight:       getEnvFloat("SCORE_OBJECTIVE_WEIGHT", defaults.ObjectiveWeight),
		PromptLengthCap:       getEnvFloat("SCORE_PROMPT_LENGTH_CAP", defaults.PromptLengthCap),
		PromptLengthReference: getEnvFloat("SCORE_PROMPT_LENGTH_REFERENCE", defaults.PromptLengthReference),
		ConversionDeltaWeight: getEnvFloat("SCORE_CONVERSION_DELTA_WEIGHT", defaults.ConversionDeltaWeight),
		ConversionDeltaCap:    getEnvFloat("SCORE_CONVERSION_DELTA_CAP", defaults.ConversionDeltaCap),
		EnableObjectiveMatch:  getEnvBool("SCORE_ENABLE_OBJECTIVE_MATCH", defaults.EnableObjectiveMatch),
		EnableConversionDelta: getEnvBool("SCORE_ENABLE_CONVERSION_DELTA", defaults.EnableConversionDelta),
	}
}

func (c *Config) IsVoiceMetricsConfigured() bool {
	return c.VoiceMetrics.BaseURL != ""
}

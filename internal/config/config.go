// Package config provides configuration for the matchparty server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Generation backend
	AnthropicBaseURL string
	AnthropicAPIKey  string
	Model            string
	LLMTimeout       time.Duration

	// Conversation settings
	DefaultMaxRounds int
	MessagePacing    time.Duration

	// Streaming settings
	StreamIdleTimeout time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:       getEnv("DATABASE_URL", "file:matchparty.db?cache=shared&mode=rwc"),
		AnthropicBaseURL:  getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		Model:             getEnv("GENERATION_MODEL", "claude-sonnet-4-20250514"),
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		DefaultMaxRounds:  getEnvInt("DEFAULT_MAX_ROUNDS", 6),
		MessagePacing:     time.Duration(getEnvInt("MESSAGE_PACING_MS", 1800)) * time.Millisecond,
		StreamIdleTimeout: time.Duration(getEnvInt("STREAM_IDLE_TIMEOUT_MS", 300000)) * time.Millisecond,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

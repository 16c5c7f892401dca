// Package config provides configuration for the helpdesk orchestrator.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the orchestrator configuration. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Completion gateway
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTimeout     time.Duration
	EmbeddingModel string
	EmbedDim       int

	// Conversation history window
	HistoryMaxMessages int
	HistoryMaxRounds   int

	// Retrieval defaults
	RetrievalTopK      int
	RetrievalThreshold float64

	// Prompt file (optional; built-in defaults are used when empty or missing)
	PromptFile string

	// Embed pending FAQ rows at startup
	EmbedCorpusOnStart bool

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 7788),
		DatabaseURL:        getEnv("DATABASE_URL", "file:helpdesk.db?cache=shared&mode=rwc"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.deepseek.com"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "deepseek-chat"),
		LLMTimeout:         time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbedDim:           getEnvInt("EMBED_DIMENSIONS", 0),
		HistoryMaxMessages: getEnvInt("HISTORY_MAX_MESSAGES", 50),
		HistoryMaxRounds:   getEnvInt("HISTORY_MAX_ROUNDS", 5),
		RetrievalTopK:      getEnvInt("RETRIEVAL_TOP_K", 5),
		RetrievalThreshold: getEnvFloat("RETRIEVAL_THRESHOLD", 0.6),
		PromptFile:         getEnv("PROMPT_FILE", ""),
		EmbedCorpusOnStart: getEnv("EMBED_CORPUS_ON_START", "") == "true",
		LogLevel:           getEnv("LOG_LEVEL", "info"),
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

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

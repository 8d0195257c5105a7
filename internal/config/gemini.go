package config

import (
	"os"
	"sync"
	"time"
)

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// CircuitCooldown is how long the breaker stays open before a trial call is let through.
	CircuitCooldown time.Duration
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{
			APIKey:          os.Getenv("GEMINI_API_KEY"),
			Model:           envOr("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbeddingModel:  envOr("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
			CircuitCooldown: envDuration("GEMINI_CIRCUIT_COOLDOWN", 30*time.Second),
		}
	})
	return geminiConfig
}

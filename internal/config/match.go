package config

import (
	"os"
	"sync"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

type MatchConfig struct {
	// Provider selects the LLM that writes career matches: "gemini" or "openrouter".
	Provider string
	// TopK is how many nearest careers are retrieved from the vector index per interview.
	TopK int
	// CatalogPath overrides the embedded question catalog when set.
	CatalogPath string
}

var (
	matchConfig *MatchConfig
	matchOnce   sync.Once
)

func LoadMatchConfig() *MatchConfig {
	matchOnce.Do(func() {
		matchConfig = &MatchConfig{
			Provider:    envOr("MATCH_PROVIDER", ProviderGemini),
			TopK:        envInt("MATCH_TOP_K", 8),
			CatalogPath: os.Getenv("CATALOG_PATH"),
		}
	})
	return matchConfig
}

package config

import (
	"log"
	"os"
	"sync"
)

type AppConfig struct {
	Name    string
	Env     string
	Port    string
	BaseURL string
	// LogMode picks the zap preset: production, test or anything else for development.
	LogMode string
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
			log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
		}
		appConfig = &AppConfig{
			Name:    envOr("APP_NAME", "career-assessment"),
			Env:     env,
			Port:    envOr("APP_PORT", ":8080"),
			BaseURL: os.Getenv("APP_URL"),
			LogMode: envOr("LOG_MODE", env),
		}
	})
	return appConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

package config

import (
	"os"
	"sync"
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

var (
	dbConfig *DBConfig
	dbOnce   sync.Once
)

func LoadDBConfig() *DBConfig {
	dbOnce.Do(func() {
		dbConfig = &DBConfig{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     envOr("DB_PORT", "5432"),
			User:     envOr("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envOr("DB_NAME", "career_assessment"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
			TimeZone: envOr("DB_TIMEZONE", "UTC"),
		}
	})
	return dbConfig
}

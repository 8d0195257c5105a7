package config

import (
	"os"
	"sync"
	"time"
)

// RedisConfig is optional; an empty Addr disables the hot result cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ResultTTL time.Duration
}

var (
	redisConfig *RedisConfig
	redisOnce   sync.Once
)

func LoadRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		redisConfig = &RedisConfig{
			Addr:      os.Getenv("REDIS_ADDR"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        envInt("REDIS_DB", 0),
			ResultTTL: envDuration("REDIS_RESULT_TTL", 24*time.Hour),
		}
	})
	return redisConfig
}

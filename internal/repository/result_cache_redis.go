package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/career-assessment/internal/config"
	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RedisResultCache keeps the latest MatchingResult per interview in Redis so hot reads skip
// the database. The results table stays the source of truth.
type RedisResultCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisResultCache(cfg *config.RedisConfig, baseLog *logger.Logger) (*RedisResultCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisResultCacheWithClient(rdb, cfg.ResultTTL, baseLog), nil
}

func NewRedisResultCacheWithClient(rdb *goredis.Client, ttl time.Duration, baseLog *logger.Logger) *RedisResultCache {
	return &RedisResultCache{rdb: rdb, ttl: ttl, log: baseLog.With("cache", "RedisResultCache")}
}

func resultKey(interviewID uuid.UUID) string {
	return "results:hot:" + interviewID.String()
}

// setIfNewer writes the entry only when no entry with the same or a later
// analysis time is already cached. ARGV: analysis time (unix micros), body, ttl ms.
var setIfNewer = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'at')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'at', ARGV[1], 'body', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// Get reports ok=false on a miss.
func (c *RedisResultCache) Get(ctx context.Context, interviewID uuid.UUID) (*model.MatchingResult, bool, error) {
	raw, err := c.rdb.HGet(ctx, resultKey(interviewID), "body").Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var mr model.MatchingResult
	if err := json.Unmarshal(raw, &mr); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &mr, true, nil
}

// Set keeps whichever result has the later AnalysisDate, so a slow back-fill of an
// older row cannot replace a freshly regenerated one.
func (c *RedisResultCache) Set(ctx context.Context, result *model.MatchingResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	written, err := setIfNewer.Run(ctx, c.rdb,
		[]string{resultKey(result.InterviewID)},
		result.AnalysisDate.UnixMicro(), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if written == 0 {
		c.log.Debug("skipped stale hot cache write", "interview_id", result.InterviewID, "analysis_date", result.AnalysisDate)
	}
	return nil
}

func (c *RedisResultCache) Close() error {
	return c.rdb.Close()
}

// internal/common/database/redis.go
package database

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"servicehub-reviews/internal/common/config"
	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/models"
)

const summaryKeyPrefix = "review:summary:"

// NewRedis opens a pooled client for the rating summary cache.
func NewRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// SummaryCache keeps reviewee rating summaries in Redis as JSON.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl, logger: logger.NewNoOpLogger()}
}

// WithLogger sets where cache anomalies are reported.
func (c *SummaryCache) WithLogger(log logger.Logger) *SummaryCache {
	if log != nil {
		c.logger = log
	}
	return c
}

func SummaryKey(revieweeID string) string {
	return summaryKeyPrefix + revieweeID
}

// Get returns the cached summary. A miss is (nil, false, nil).
func (c *SummaryCache) Get(ctx context.Context, revieweeID string) (*models.RatingSummary, bool, error) {
	val, err := c.client.Get(ctx, SummaryKey(revieweeID)).Result()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewCacheFailedError("get", err)
	}

	var s models.RatingSummary
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		// corrupt entry, treat as a miss so it gets rewritten
		c.logger.Warn("corrupt summary cache entry", map[string]interface{}{
			"revieweeId": revieweeID,
			"key":        SummaryKey(revieweeID),
			"error":      err.Error(),
		})
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, revieweeID string, s models.RatingSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, SummaryKey(revieweeID), data, c.ttl).Err(); err != nil {
		return errors.NewCacheFailedError("set", err)
	}
	return nil
}

// Invalidate drops the cached summary after a review for revieweeID changes.
func (c *SummaryCache) Invalidate(ctx context.Context, revieweeID string) error {
	if err := c.client.Del(ctx, SummaryKey(revieweeID)).Err(); err != nil {
		return errors.NewCacheFailedError("del", err)
	}
	return nil
}

func (c *SummaryCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Package cache stores generated answers in redis so repeated questions skip
// the model.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"healthai/internal/metrics"
	"healthai/internal/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type AnswerCache struct {
	redis redis.Cmdable
	ttl   time.Duration
	log   *zap.SugaredLogger
}

// NewAnswerCache returns a cache backed by client. A nil client yields a
// cache that always misses.
func NewAnswerCache(client redis.Cmdable, ttl time.Duration, log *zap.SugaredLogger) *AnswerCache {
	if ttl <= 0 {
		ttl = shared.AnswerCacheTTL
	}
	return &AnswerCache{redis: client, ttl: ttl, log: log}
}

func Key(modelID, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("v1:healthai:answer:%s:%s", modelID, hex.EncodeToString(sum[:]))
}

func (c *AnswerCache) Enabled() bool {
	return c != nil && c.redis != nil
}

// Get returns the cached answer. Read errors are logged and reported as a miss.
func (c *AnswerCache) Get(ctx context.Context, modelID, prompt string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	key := Key(modelID, prompt)
	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.AnswerCache.WithLabelValues("hit").Inc()
		return val, true
	case errors.Is(err, redis.Nil):
		c.log.Debugw("Answer cache miss", "key", key)
	default:
		metrics.ErrorCount.WithLabelValues("cache", shared.ErrFailedCacheRead.Code).Inc()
		c.log.Warnw("Error reading answer cache", "key", key, "error", err)
	}
	metrics.AnswerCache.WithLabelValues("miss").Inc()
	return "", false
}

func (c *AnswerCache) Set(ctx context.Context, modelID, prompt, answer string) {
	if !c.Enabled() {
		return
	}
	key := Key(modelID, prompt)
	if err := c.redis.Set(ctx, key, answer, c.ttl).Err(); err != nil {
		c.log.Warnw("Error writing answer cache", "key", key, "error", err)
	}
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
)

// RedisAnswerCache caches full query results by question. Best-effort:
// every failure is a cache miss, never a query failure.
type RedisAnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAnswerCache wraps a connected redis client.
func NewRedisAnswerCache(client *redis.Client, ttl time.Duration) *RedisAnswerCache {
	return &RedisAnswerCache{client: client, ttl: ttl}
}

func (c *RedisAnswerCache) Get(ctx context.Context, question string) (*models.QueryResult, bool) {
	data, err := c.client.Get(ctx, cacheKey(question)).Bytes()
	if err != nil {
		return nil, false
	}

	var result models.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *RedisAnswerCache) Set(ctx context.Context, question string, result *models.QueryResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(question), data, c.ttl).Err(); err != nil {
		logger.Debug("Answer cache write failed", "error", err)
	}
}

func cacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "rag:answer:" + hex.EncodeToString(sum[:])
}

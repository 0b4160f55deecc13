package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-route-service/internal/domain"
)

// RedisMatrixCache is a Redis-backed cache for assembled time/distance
// matrices, stored as JSON with a TTL.
type RedisMatrixCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMatrixCache(client *redis.Client, ttl time.Duration) (*RedisMatrixCache, error) {
	if client == nil {
		return nil, errors.New("redis matrix cache: client is nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("redis matrix cache: ttl must be positive, got %s", ttl)
	}
	return &RedisMatrixCache{client: client, ttl: ttl}, nil
}

func (c *RedisMatrixCache) Get(ctx context.Context, key string) (domain.MatrixResult, bool, error) {
	if key == "" {
		return domain.MatrixResult{}, false, errors.New("get matrix cache: key must not be empty")
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.MatrixResult{}, false, nil
	}
	if err != nil {
		return domain.MatrixResult{}, false, fmt.Errorf("get matrix cache: redis get %q: %w", key, err)
	}

	var result domain.MatrixResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.MatrixResult{}, false, fmt.Errorf("get matrix cache: decode %q: %w", key, err)
	}
	return result, true, nil
}

func (c *RedisMatrixCache) Put(ctx context.Context, key string, result domain.MatrixResult) error {
	if key == "" {
		return errors.New("insert matrix cache: key must not be empty")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("insert matrix cache: encode %q: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("insert matrix cache: redis set %q: %w", key, err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"retailops/backend/internal/domain"
)

// versionTTL keeps version counters around well beyond any summary TTL so a
// counter never resets underneath a live entry.
const versionTTL = 30 * 24 * time.Hour

func NewRedisClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type RedisPayrollCache struct {
	client *redis.Client
}

func NewRedisPayrollCache(client *redis.Client) *RedisPayrollCache {
	return &RedisPayrollCache{client: client}
}

func (c *RedisPayrollCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisPayrollCache) Get(ctx context.Context, key string) (*domain.PayrollSummary, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summary domain.PayrollSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *RedisPayrollCache) Set(ctx context.Context, key string, value *domain.PayrollSummary, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisPayrollCache) Version(ctx context.Context, employeeID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(employeeID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisPayrollCache) Bump(ctx context.Context, employeeID string) error {
	key := versionKey(employeeID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, versionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

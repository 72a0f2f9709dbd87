package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const retryBackoff = 50 * time.Millisecond

// Redis is a Locker shared by every process that talks to the same Redis.
// Obtain retries until the lock TTL has elapsed once.
type Redis struct {
	locker *redislock.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *Redis {
	return &Redis{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis) Obtain(ctx context.Context, key string) (Release, error) {
	attempts := int(r.ttl / retryBackoff)
	if attempts < 1 {
		attempts = 1
	}
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryBackoff), attempts),
	}

	l, err := r.locker.Obtain(ctx, "lock:"+key, r.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, err
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// The request context may already be cancelled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.WithFields(logrus.Fields{
				"module": "lock",
				"key":    key,
			}).WithError(err).Warn("failed to release redis lock")
		}
	}, nil
}

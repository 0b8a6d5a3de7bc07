package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisCache stores upstream response bodies with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	logger logrus.FieldLogger
}

// NewRedisCacheFromClient wraps an existing client. The cache owns the client
// afterwards and closes it on Close.
func NewRedisCacheFromClient(client redis.UniversalClient, logger logrus.FieldLogger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, key, body, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.logger.WithFields(logrus.Fields{"key": key, "ttl": ttl.String()}).Debug("cached response")
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

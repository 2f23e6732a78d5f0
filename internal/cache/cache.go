package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ErrMiss is returned when a key is not in the cache.
var ErrMiss = errors.New("cache: miss")

const keyPrefix = "bankdash:"

// Cache is a small read-through cache over Redis for dashboard reads.
// A nil *Cache is valid and behaves as always-miss, so callers never need
// to check whether caching is configured.
type Cache struct {
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New returns nil when addr is empty.
func New(addr string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	if addr == "" {
		return nil, nil
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns the cached value for key or ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if c == nil {
		return "", ErrMiss
	}
	resp := c.client.Do(ctx, c.client.B().Get().Key(keyPrefix+key).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return "", ErrMiss
		}
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return "", ErrMiss
	}
	return resp.ToString()
}

// Set stores value under key with the configured TTL. Failures are logged
// and ignored; the cache is best effort.
func (c *Cache) Set(ctx context.Context, key, value string) {
	if c == nil {
		return
	}
	cmd := c.client.B().Set().Key(keyPrefix + key).Value(value).
		Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete invalidates a key after a write to the underlying store.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	cmd := c.client.B().Del().Key(keyPrefix + key).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.client.Close()
}

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "geocode:resolve:"

// CachedGeocoder memoizes resolutions in Redis. Cache failures fall
// through to the underlying geocoder.
type CachedGeocoder struct {
	next   Geocoder
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps a geocoder with a Redis result cache.
func NewCached(next Geocoder, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGeocoder{next: next, client: client, ttl: ttl, logger: logger}
}

// ResolveAddress checks the cache before delegating.
func (c *CachedGeocoder) ResolveAddress(ctx context.Context, address string) (*Result, error) {
	key := cacheKeyPrefix + address

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("geocode cache get failed", zap.String("address", address), zap.Error(err))
	}

	result, err := c.next.ResolveAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("geocode cache set failed", zap.String("address", address), zap.Error(err))
		}
	}
	return result, nil
}

// StaticMapURL delegates; the URL is derived, not a remote call.
func (c *CachedGeocoder) StaticMapURL(address string) string {
	return c.next.StaticMapURL(address)
}

// NewRedis returns a configured Redis client, verifying connectivity.
func NewRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

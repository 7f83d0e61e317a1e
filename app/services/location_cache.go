package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/printsetu/printsetu/models"
	"github.com/redis/go-redis/v9"
)

// LocationCache stores resolved location signals per session. Entries
// expire server-side at the location TTL; readers still check
// freshness because a read-check-write on a single key is the only
// synchronization this cache needs.
type LocationCache interface {
	Get(ctx context.Context, sessionID string) (*models.LocationSignal, error)
	Set(ctx context.Context, sessionID string, signal *models.LocationSignal) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisLocationCache implements LocationCache on go-redis.
type RedisLocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocationCache(client *redis.Client, ttl time.Duration) *RedisLocationCache {
	return &RedisLocationCache{client: client, ttl: ttl}
}

func locationKey(sessionID string) string {
	return fmt.Sprintf("loc:%s", sessionID)
}

// Get returns the cached signal, or nil on a miss.
func (c *RedisLocationCache) Get(ctx context.Context, sessionID string) (*models.LocationSignal, error) {
	bs, err := c.client.Get(ctx, locationKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read location cache: %w", err)
	}

	var signal models.LocationSignal
	if err := json.Unmarshal(bs, &signal); err != nil {
		return nil, fmt.Errorf("failed to decode cached location: %w", err)
	}

	return &signal, nil
}

// Set overwrites the session's signal; stale entries are replaced, not merged.
func (c *RedisLocationCache) Set(ctx context.Context, sessionID string, signal *models.LocationSignal) error {
	bs, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to encode location signal: %w", err)
	}

	if err := c.client.Set(ctx, locationKey(sessionID), bs, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write location cache: %w", err)
	}

	return nil
}

// Delete drops the session's signal, forcing re-resolution.
func (c *RedisLocationCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, locationKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete location cache entry: %w", err)
	}
	return nil
}

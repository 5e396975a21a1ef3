package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// APIKeyCache implements ports.APIKeyCache using Redis. Entries are keyed
// by credential fingerprint, never by the raw key.
type APIKeyCache struct {
	client *goredis.Client
	prefix string
}

// NewAPIKeyCache creates a new Redis-backed API key cache.
func NewAPIKeyCache(client *goredis.Client) *APIKeyCache {
	return &APIKeyCache{
		client: client,
		prefix: "apikey:",
	}
}

// Get retrieves a cached credential resolution.
// Returns nil, nil if the key does not exist.
func (c *APIKeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis apikey get: %w", err)
	}
	return val, nil
}

// Set stores a credential resolution with TTL.
func (c *APIKeyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis apikey set: %w", err)
	}
	return nil
}

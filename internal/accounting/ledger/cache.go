package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const versionKeyPrefix = "ledger:version:"

// Cache is a Redis-backed statement cache with per-tenant versioning. Every
// posting bumps the tenant's version, which shifts all cache keys and leaves
// stale statements to expire via TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the tenant's current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKeyPrefix + tenantID.String()
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates the tenant's cached statements.
func (c *Cache) Bump(ctx context.Context, tenantID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKeyPrefix+tenantID.String()).Err()
}

// BuildKey composes a cache key carrying the tenant's current version.
func (c *Cache) BuildKey(ctx context.Context, tenantID uuid.UUID, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"ledger", tenantID.String()}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return joined + ":" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("ledger cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(payload, dest)
}

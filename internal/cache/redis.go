package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"pawpop-backend/internal/printify"
)

const catalogKeyPrefix = "pawpop:catalog:"

// luaReleaseIfOwner deletes the lock only while it still holds the caller's
// token, so an expired holder cannot release a newer lock.
const luaReleaseIfOwner = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// CatalogCache stores provider products by catalog key.
type CatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCatalogCache(rdb *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

func (c *CatalogCache) Get(ctx context.Context, key string) (*printify.CatalogEntry, bool, error) {
	raw, err := c.rdb.Get(ctx, catalogKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var entry printify.CatalogEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode catalog entry: %w", err)
	}
	return &entry, true, nil
}

func (c *CatalogCache) Set(ctx context.Context, key string, entry *printify.CatalogEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode catalog entry: %w", err)
	}
	if err := c.rdb.Set(ctx, catalogKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	return nil
}

// SessionLocker is a Redis lock keyed per payment session.
type SessionLocker struct {
	rdb *redis.Client
}

func NewSessionLocker(rdb *redis.Client) *SessionLocker {
	return &SessionLocker{rdb: rdb}
}

func (l *SessionLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, "pawpop:lock:"+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *SessionLocker) Release(ctx context.Context, key, token string) error {
	if err := l.rdb.Eval(ctx, luaReleaseIfOwner, []string{"pawpop:lock:" + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}

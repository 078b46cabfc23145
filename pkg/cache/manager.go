package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Manager is the shared redis layer. Each entry is a hash stored under
// CacheKey.String() with a redis expiry matching CacheEntry.Expires, so
// several processes running the same queries reuse each other's pages.
type Manager struct {
	redis *redis.Client
}

// NewManager panics on a nil client.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("cache: nil redis client")
	}
	return &Manager{redis: redisClient}
}

// Get implements Store. A hash that cannot be decoded is removed and
// reported as ErrInvalidEntry.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	k := key.String()

	h, err := m.redis.HGetAll(ctx, k).Result()
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		// a plain string left under the key
		if isWrongType(err) {
			_ = m.Delete(ctx, key)
			return nil, fmt.Errorf("%w: %s is not a hash", ErrInvalidEntry, k)
		}
		return nil, fmt.Errorf("redis hgetall %s: %w", k, err)
	}
	if len(h) == 0 {
		CacheMisses.WithLabelValues("redis").Inc()
		return nil, ErrCacheMiss
	}

	entry, err := entryFromHash(h)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		_ = m.Delete(ctx, key)
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, k, err)
	}
	// redis expiry has millisecond resolution; the entry is authoritative
	if entry.IsExpired() {
		CacheMisses.WithLabelValues("redis").Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return entry, nil
}

// Set implements Store. The old hash is replaced in one MULTI/EXEC so a
// reader never sees fields from two responses.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return errors.New("cache: nil entry")
	}
	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	fields, err := entry.hashFields()
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return err
	}

	k := key.String()
	_, err = m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, fields...)
		pipe.PExpire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis store %s: %w", k, err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(entry.Data)))
	return nil
}

// Delete implements Store.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Unlink(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis unlink %s: %w", key, err)
	}
	return nil
}

func isWrongType(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.HasPrefix(rerr.Error(), "WRONGTYPE")
}

package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// Memory is an in-process Store.
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		items: gocache.New(gocache.NoExpiration, memoryCleanupInterval),
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key CacheKey) (*CacheEntry, error) {
	v, ok := m.items.Get(key.String())
	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	entry, ok := v.(*CacheEntry)
	if !ok {
		CacheErrors.WithLabelValues("get").Inc()
		m.items.Delete(key.String())
		return nil, fmt.Errorf("%w: unexpected type %T", ErrInvalidEntry, v)
	}
	if entry.IsExpired() {
		m.items.Delete(key.String())
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry.clone(), nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	m.items.Set(key.String(), entry.clone(), ttl)
	CacheSize.WithLabelValues("memory").Add(float64(len(entry.Data)))
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key CacheKey) error {
	m.items.Delete(key.String())
	return nil
}

// ItemCount returns the number of stored entries, including expired ones not
// yet cleaned up.
func (m *Memory) ItemCount() int {
	return m.items.ItemCount()
}

package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is a response cache.
type Store interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)
	// Set stores entry until entry.Expires. Expired entries are not stored.
	Set(ctx context.Context, key CacheKey, entry *CacheEntry) error
	Delete(ctx context.Context, key CacheKey) error
}

// Chain reads stores in order and backfills faster stores on a hit in a
// slower one. Writes and deletes go to every store.
type Chain struct {
	stores []Store
}

// NewChain creates a chain. Nil stores are skipped.
func NewChain(stores ...Store) *Chain {
	c := &Chain{}
	for _, s := range stores {
		if s != nil {
			c.stores = append(c.stores, s)
		}
	}
	return c
}

// Len returns the number of stores in the chain.
func (c *Chain) Len() int {
	return len(c.stores)
}

// Get implements Store. A store error is treated like a miss in that store
// and the first such error is returned if no store hits.
func (c *Chain) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	var firstErr error
	for i, s := range c.stores {
		entry, err := s.Get(ctx, key)
		if err == nil {
			for _, faster := range c.stores[:i] {
				_ = faster.Set(ctx, key, entry)
			}
			return entry, nil
		}
		if !errors.Is(err, ErrCacheMiss) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrCacheMiss
}

// Set implements Store.
func (c *Chain) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	var errs []error
	for _, s := range c.stores {
		if err := s.Set(ctx, key, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete implements Store.
func (c *Chain) Delete(ctx context.Context, key CacheKey) error {
	var errs []error
	for _, s := range c.stores {
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

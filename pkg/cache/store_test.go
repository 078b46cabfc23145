package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, CacheKey) (*CacheEntry, error) {
	return nil, f.err
}

func (f failingStore) Set(context.Context, CacheKey, *CacheEntry) error {
	return f.err
}

func (f failingStore) Delete(context.Context, CacheKey) error {
	return f.err
}

func TestChain_BackfillsFasterStore(t *testing.T) {
	fast, slow := NewMemory(), NewMemory()
	chain := NewChain(fast, slow)
	ctx := context.Background()
	key := CacheKey{Endpoint: "taxa", QueryParams: map[string][]string{"q": {"Anura"}}}

	if err := slow.Set(ctx, key, &CacheEntry{Data: []byte("x"), Expires: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := chain.Get(ctx, key); err != nil {
		t.Fatalf("chain Get failed: %v", err)
	}
	if _, err := fast.Get(ctx, key); err != nil {
		t.Errorf("fast store not backfilled: %v", err)
	}
}

func TestChain_SetWritesAll(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	chain := NewChain(a, nil, b)
	ctx := context.Background()
	key := CacheKey{Endpoint: "projects"}

	if chain.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (nil skipped)", chain.Len())
	}
	if err := chain.Set(ctx, key, &CacheEntry{Expires: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	for i, s := range []*Memory{a, b} {
		if _, err := s.Get(ctx, key); err != nil {
			t.Errorf("store %d missing entry: %v", i, err)
		}
	}

	if err := chain.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := a.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("entry not deleted: %v", err)
	}
}

func TestChain_StoreErrorFallsThrough(t *testing.T) {
	errDown := errors.New("redis down")
	mem := NewMemory()
	chain := NewChain(failingStore{errDown}, mem)
	ctx := context.Background()
	key := CacheKey{Endpoint: "projects"}

	if _, err := chain.Get(ctx, key); !errors.Is(err, errDown) {
		t.Errorf("Get() error = %v, want %v when nothing hits", err, errDown)
	}

	_ = mem.Set(ctx, key, &CacheEntry{Expires: time.Now().Add(time.Minute)})
	if _, err := chain.Get(ctx, key); err != nil {
		t.Errorf("Get() should hit the healthy store: %v", err)
	}

	if err := chain.Set(ctx, key, &CacheEntry{Expires: time.Now().Add(time.Minute)}); !errors.Is(err, errDown) {
		t.Errorf("Set() error = %v, want joined %v", err, errDown)
	}
}

func TestChain_Empty(t *testing.T) {
	if _, err := NewChain().Get(context.Background(), CacheKey{}); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("empty chain Get() error = %v, want ErrCacheMiss", err)
	}
}

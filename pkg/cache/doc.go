// Package cache provides an optional response cache for the iNaturalist
// client.
//
// Two stores implement Store:
//
//   - Memory: an in-process cache (github.com/patrickmn/go-cache), useful
//     for repeated lookups within one run.
//   - Manager: a redis-backed cache shared between runs and processes.
//
// Chain stacks them, reading the fastest store first and backfilling it
// from slower ones on a hit further down.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewChain(cache.NewMemory(), cache.NewManager(redisClient))
//
//	key := cache.CacheKey{
//		Endpoint:    "places/autocomplete",
//		QueryParams: url.Values{"q": []string{"Travis"}},
//	}
//
//	entry, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then:
//		entry, _ = cache.ResponseToEntry(resp, time.Hour)
//		_ = store.Set(ctx, key, entry)
//	}
//
// Only 200 responses are cached. An entry lives until the response's Expires
// header when one is present, otherwise for the TTL given to
// ResponseToEntry.
//
// # Metrics
//
//   - inat_cache_hits_total{layer} - cache hits by layer (memory, redis)
//   - inat_cache_misses_total{layer} - cache misses by layer
//   - inat_cache_size_bytes{layer} - bytes written per layer
//   - inat_cache_errors_total{operation} - cache operation errors
package cache

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inat_cache_hits_total",
			Help: "Total number of iNaturalist response cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inat_cache_misses_total",
			Help: "Total number of iNaturalist response cache misses",
		},
		[]string{"layer"},
	)

	// CacheSize tracks bytes written by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inat_cache_size_bytes",
			Help: "Bytes written to the iNaturalist response cache",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inat_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by cache and result (hit, miss, expired)",
		},
		[]string{"cache", "result"},
	)

	cacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Entries removed to stay within the configured capacity",
		},
		[]string{"cache"},
	)

	cacheStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_errors_total",
			Help: "Failed persistence operations by cache and operation",
		},
		[]string{"cache", "op"},
	)

	cacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Entries currently held in memory",
		},
		[]string{"cache"},
	)
)

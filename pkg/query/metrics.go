package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks fresh values served from the store
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paxmon_query_cache_hits_total",
			Help: "Total number of query results served from the store",
		},
	)

	// cacheMisses tracks lookups that had to fetch
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paxmon_query_cache_misses_total",
			Help: "Total number of query lookups that required a fetch",
		},
	)

	// fetchesTotal tracks fetch function invocations by outcome
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paxmon_query_fetches_total",
			Help: "Total number of query fetch function calls by outcome",
		},
		[]string{"outcome"}, // "success", "error"
	)

	// sharedFetches tracks callers that joined an in-flight fetch
	sharedFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paxmon_query_shared_fetches_total",
			Help: "Total number of query fetches shared with a concurrent caller",
		},
	)

	// invalidations tracks entries removed by Invalidate and Remove
	invalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paxmon_query_invalidations_total",
			Help: "Total number of query entries invalidated",
		},
	)

	// storeErrors tracks store operation errors
	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paxmon_query_store_errors_total",
			Help: "Total number of query store operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)
)

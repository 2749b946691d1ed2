// Package query is a small cache-aware query engine for backend reads.
//
// A Query pairs a Key with the function that fetches its value and a caching
// policy. The Client runs queries against a Store:
//
//   - disabled queries never call their fetch function
//   - a stored value younger than the stale time is served from the store
//   - concurrent fetches of one key share a single call (singleflight)
//   - fetched values are kept for the cache time; errors are never stored
//   - Invalidate drops every value under a key prefix
//
// # Basic Usage
//
//	client := query.NewClient(query.NewMemoryStore(), query.DefaultConfig())
//
//	q := query.New(query.Key{"paxmon", "status", 0},
//		func(ctx context.Context) (*protocol.PaxMonStatusResponse, error) {
//			return api.Status(ctx, protocol.PaxMonStatusRequest{})
//		},
//		query.WithStaleTime(10*time.Second),
//	)
//
//	status, updatedAt, err := query.Fetch(ctx, client, q)
//
// # Shared Stores
//
// RedisStore lets several processes share results. Keys are written as
// "paxmon:query:" followed by the JSON encoding of the Key, and prefix
// invalidation walks them with SCAN:
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	client := query.NewClient(query.NewRedisStore(redisClient), query.DefaultConfig())
//
//	// drop every paxmon result
//	client.Invalidate(ctx, query.Key{"paxmon"})
//
// # Observers
//
// An Observer follows a query whose key changes, e.g. a search field. With
// WithKeepPreviousData the last successful value stays visible, flagged as
// placeholder data, while the new key is disabled or failing.
//
// # Metrics
//
//   - paxmon_query_cache_hits_total - values served from the store
//   - paxmon_query_cache_misses_total - lookups that fetched
//   - paxmon_query_fetches_total{outcome} - fetch function calls
//   - paxmon_query_shared_fetches_total - callers that joined an in-flight fetch
//   - paxmon_query_invalidations_total - entries removed
//   - paxmon_query_store_errors_total{operation} - store failures
package query

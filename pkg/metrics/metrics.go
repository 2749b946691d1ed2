// Package metrics provides the Prometheus registry used by the paxmon client
// and the handler that exposes it.
// All metrics are defined in their respective packages (transport, query,
// paxmon) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the paxmon client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects what Registry holds.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		Registry,
		promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}),
	)
}

// Metrics Documentation
//
// Request Metrics (pkg/transport):
//   - paxmon_requests_total{target, status} (Counter): Requests by MOTIS target and HTTP status
//   - paxmon_request_duration_seconds{target} (Histogram): Request duration by target
//   - paxmon_errors_total{class} (Counter): Errors by class (client, server, network, backend, decode)
//
// Retry Metrics (pkg/transport):
//   - paxmon_retries_total{error_class} (Counter): Retry attempts by error class
//   - paxmon_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - paxmon_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Query Metrics (pkg/query):
//   - paxmon_query_cache_hits_total (Counter): Fresh values served from the store
//   - paxmon_query_cache_misses_total (Counter): Lookups that went to the backend
//   - paxmon_query_fetches_total{outcome} (Counter): Fetches by outcome (success, error)
//   - paxmon_query_shared_fetches_total (Counter): Callers that joined an in-flight fetch
//   - paxmon_query_invalidations_total (Counter): Entries removed by prefix invalidation
//   - paxmon_query_store_errors_total{operation} (Counter): Store failures by operation
//
// Keep-alive Metrics (pkg/paxmon):
//   - paxmon_keepalive_universes (Gauge): Universes currently kept alive
//   - paxmon_keepalive_rounds_total{outcome} (Counter): Keep-alive rounds by outcome
//   - paxmon_keepalive_expired_total (Counter): Universes the backend reported expired
//
// Example Prometheus Queries:
//
//   # Query Cache Hit Rate
//   sum(rate(paxmon_query_cache_hits_total[5m])) /
//   (sum(rate(paxmon_query_cache_hits_total[5m])) + sum(rate(paxmon_query_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(paxmon_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(paxmon_request_duration_seconds_bucket[5m]))
//
//   # Expired Universes
//   increase(paxmon_keepalive_expired_total[1h]) > 0

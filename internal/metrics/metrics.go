// Package metrics bundles Prometheus collectors for the HTTP layer and the
// fetch provider on a dedicated registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamestore_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamestore_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamestore_fetches_total",
			Help: "Page fetches by site and outcome (memory, cache, network, stale, robots_denied, error).",
		},
		[]string{"site", "outcome"},
	)
	scrapeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamestore_scrape_operations_total",
			Help: "Parser operations by site, operation and success.",
		},
		[]string{"site", "operation", "success"},
	)
	searchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamestore_search_results_total",
			Help: "Raw search results returned by site parsers.",
		},
		[]string{"site"},
	)
)

func init() {
	registry.MustRegister(requestsTotal, requestDuration, fetchesTotal, scrapeOpsTotal, searchResultsTotal)
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, path string, status int, latency time.Duration) {
	requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordFetch records a fetch-provider outcome for one URL.
func RecordFetch(site, outcome string) {
	fetchesTotal.WithLabelValues(site, outcome).Inc()
}

// RecordScrapeOp records one parser operation (list, detail, search).
func RecordScrapeOp(site, operation string, success bool) {
	scrapeOpsTotal.WithLabelValues(site, operation, strconv.FormatBool(success)).Inc()
}

// RecordSearchResults adds the raw result count contributed by a site.
func RecordSearchResults(site string, count int) {
	if count > 0 {
		searchResultsTotal.WithLabelValues(site).Add(float64(count))
	}
}

// Handler exposes the registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

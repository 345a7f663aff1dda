// Package metrics provides Prometheus metrics for the Card Bazaar
// ingestion backend. Scrape these at /metrics for dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbazaar_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardbazaar_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Scrape Metrics
	PagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbazaar_pages_fetched_total",
			Help: "Total number of listing pages fetched, by source",
		},
		[]string{"source"},
	)

	FetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardbazaar_fetch_retries_total",
			Help: "Total number of fetch retries after rate limits or server errors",
		},
	)

	// Refresh Worker Metrics
	RefreshRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardbazaar_refresh_runs_total",
			Help: "Total number of catalog refresh runs",
		},
	)

	RefreshRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardbazaar_refresh_run_duration_seconds",
			Help:    "Time taken by a full catalog refresh run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	GroupsRefreshedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbazaar_groups_refreshed_total",
			Help: "Set groups processed by refresh runs, by outcome",
		},
		[]string{"status"},
	)

	// Catalog Metrics
	RecordsUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbazaar_records_upserted_total",
			Help: "Card records written by the merge, by operation",
		},
		[]string{"op"}, // "insert" or "update"
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardbazaar_catalog_size",
			Help: "Number of card records in the catalog",
		},
	)

	// Set-Code Sync Metrics
	SetCodeRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbazaar_setcode_rows_total",
			Help: "Set-code sync rows processed, by result",
		},
		[]string{"result"}, // "applied" or "failed"
	)

	// Rate Limiter Metrics
	RateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardbazaar_ratelimit_rejections_total",
			Help: "Requests rejected by the keyed rate limiter",
		},
	)
)

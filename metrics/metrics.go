// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a4blend_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "a4blend_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "a4blend_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog metrics
var (
	CatalogBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a4blend_catalog_builds_total",
			Help: "Total number of catalog builds by outcome",
		},
		[]string{"status"}, // "completed", "failed", "superseded"
	)

	CatalogBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "a4blend_catalog_build_duration_seconds",
			Help:    "Catalog build duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "a4blend_catalog_entries",
			Help: "Number of entries in the published catalog",
		},
	)

	CoverExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a4blend_cover_extractions_total",
			Help: "Cover extraction attempts by result",
		},
		[]string{"result"}, // "found", "absent", "fetch_error", "parse_error"
	)
)

// Player metrics
var (
	PlayerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a4blend_player_events_total",
			Help: "Player events processed by kind",
		},
		[]string{"kind"},
	)

	PlayerStaleEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "a4blend_player_stale_events_total",
			Help: "Sink events discarded because they referenced a previous track",
		},
	)

	WebSocketClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "a4blend_websocket_clients",
			Help: "Connected websocket clients by topic",
		},
		[]string{"topic"},
	)
)

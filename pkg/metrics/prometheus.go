// Package metrics provides Prometheus metrics for the frcstats service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Upstream Metrics - TBA and Statbotics calls
	upstreamRequests        *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	rateLimitHits           prometheus.Counter

	// Batch Pass Metrics
	leaderboardPasses       prometheus.Counter
	leaderboardPassFailures prometheus.Counter
	leaderboardPassDuration prometheus.Histogram
	leaderboardTeamsSkipped prometheus.Counter
	snapshotLastUnix        prometheus.Gauge
	snapshotEntries         prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry()

func init() {
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Option configures the Manager.
type Option func(*Manager)

// WithRegistry sets the Prometheus registry metrics register on.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		m.registry = registry
	}
}

// WithHistogramBuckets overrides the default latency buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		m.histogramBuckets = buckets
	}
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "frcstats",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method"},
	)

	m.upstreamRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API requests by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	m.upstreamRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"source"},
	)

	m.rateLimitHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rate_limit_hits_total",
		Help:      "Total number of 429 responses received from upstream",
	})

	m.leaderboardPasses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_passes_total",
		Help:      "Total number of completed leaderboard batch passes",
	})

	m.leaderboardPassFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_pass_failures_total",
		Help:      "Total number of failed leaderboard batch passes",
	})

	m.leaderboardPassDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_pass_duration_seconds",
		Help:      "Leaderboard batch pass duration in seconds",
		Buckets:   []float64{60, 300, 900, 1800, 3600, 7200, 14400},
	})

	m.leaderboardTeamsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_teams_skipped_total",
		Help:      "Total number of teams skipped during batch passes",
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "snapshot_last_unix",
		Help:      "Unix timestamp of the last persisted leaderboard snapshot",
	})

	m.snapshotEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "snapshot_entries",
		Help:      "Number of entries in the last persisted snapshot",
	})
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

// RecordUpstreamRequest records one upstream API call and its outcome.
func RecordUpstreamRequest(source, outcome string) {
	globalManager.upstreamRequests.WithLabelValues(source, outcome).Inc()
}

// RecordUpstreamRequestDuration records upstream call duration in seconds.
func RecordUpstreamRequestDuration(source string, seconds float64) {
	globalManager.upstreamRequestDuration.WithLabelValues(source).Observe(seconds)
}

// RecordRateLimitHit increments the upstream 429 counter.
func RecordRateLimitHit() {
	globalManager.rateLimitHits.Inc()
}

// RecordLeaderboardPass records one completed batch pass.
func RecordLeaderboardPass(durationSeconds float64, entries, teamsSkipped int) {
	globalManager.leaderboardPasses.Inc()
	globalManager.leaderboardPassDuration.Observe(durationSeconds)
	globalManager.leaderboardTeamsSkipped.Add(float64(teamsSkipped))
	globalManager.snapshotEntries.Set(float64(entries))
}

// RecordLeaderboardPassFailure increments the failed pass counter.
func RecordLeaderboardPassFailure() {
	globalManager.leaderboardPassFailures.Inc()
}

// UpdateSnapshotTimestamp sets the last snapshot publish time.
func UpdateSnapshotTimestamp(unix int64) {
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

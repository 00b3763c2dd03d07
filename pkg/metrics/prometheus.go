// Package metrics provides Prometheus metrics for the reliability scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring metrics
	scoresComputed prometheus.Counter
	scoringLatency prometheus.Histogram
	scoringErrors  prometheus.Counter
	scoreValue     prometheus.Histogram
	tierChanges    *prometheus.CounterVec
	cleanersByTier *prometheus.GaugeVec

	// Batch metrics
	batchRuns        prometheus.Counter
	batchFailures    prometheus.Counter
	batchDuration    prometheus.Histogram
	batchProcessed   prometheus.Gauge
	batchErrors      prometheus.Gauge
	batchLastRunUnix prometheus.Gauge
	batchWorkerCount prometheus.Gauge

	// Repository metrics
	repositoryQueryLatency  prometheus.Histogram
	repositoryUpdateLatency prometheus.Histogram
	repositoryConflicts     prometheus.Counter
	activeProfiles          prometheus.Gauge

	// Event metrics
	eventsEmitted    *prometheus.CounterVec
	eventsSuppressed prometheus.Counter
	eventEmitErrors  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry keeps the default Go collectors out of scrapes.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "brightnest",
		subsystem:        "reliability",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scoresComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_computed_total",
		Help:      "Total number of reliability score computations",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of end-to-end per-cleaner scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scoringErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Total number of failed score computations",
	})

	m.scoreValue = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_value",
		Help:      "Distribution of computed total scores",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	m.tierChanges = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tier_changes_total",
			Help:      "Total number of tier changes by direction",
		},
		[]string{"direction"},
	)

	m.cleanersByTier = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cleaners_by_tier",
			Help:      "Number of active cleaners per tier as of the last batch run",
		},
		[]string{"tier"},
	)

	m.batchRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_runs_total",
		Help:      "Total number of batch recompute runs",
	})

	m.batchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_fatal_failures_total",
		Help:      "Total number of batch runs that failed before processing any cleaner",
	})

	m.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_seconds",
		Help:      "Histogram of batch run wall-clock duration in seconds",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	m.batchProcessed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_processed",
		Help:      "Number of cleaners processed in the last batch run",
	})

	m.batchErrors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_errors",
		Help:      "Number of per-cleaner errors in the last batch run",
	})

	m.batchLastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed batch run",
	})

	m.batchWorkerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_worker_count",
		Help:      "Number of workers used by the batch runner",
	})

	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_milliseconds",
		Help:      "Histogram of repository read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_update_latency_milliseconds",
		Help:      "Histogram of repository write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_version_conflicts_total",
		Help:      "Total number of optimistic-concurrency conflicts on score writes",
	})

	m.activeProfiles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_profiles",
		Help:      "Number of active cleaner profiles seen by the last batch run",
	})

	m.eventsEmitted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_emitted_total",
			Help:      "Total number of domain events emitted by type",
		},
		[]string{"type"},
	)

	m.eventsSuppressed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_suppressed_total",
		Help:      "Total number of duplicate events suppressed by the dedupe wrapper",
	})

	m.eventEmitErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_emit_errors_total",
		Help:      "Total number of event emission failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status code",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers recording on the global manager.

func RecordScoreComputed(total int) {
	globalManager.scoresComputed.Inc()
	globalManager.scoreValue.Observe(float64(total))
}

func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordTierChange records a tier transition; direction is "up" or "down".
func RecordTierChange(direction string) {
	globalManager.tierChanges.WithLabelValues(direction).Inc()
}

func UpdateCleanersByTier(tier string, count int) {
	globalManager.cleanersByTier.WithLabelValues(tier).Set(float64(count))
}

func RecordBatchRun(durationSeconds float64, processed, errors int) {
	globalManager.batchRuns.Inc()
	globalManager.batchDuration.Observe(durationSeconds)
	globalManager.batchProcessed.Set(float64(processed))
	globalManager.batchErrors.Set(float64(errors))
}

func RecordBatchFatal() {
	globalManager.batchFailures.Inc()
}

func UpdateBatchLastRunUnix(ts float64) {
	globalManager.batchLastRunUnix.Set(ts)
}

func UpdateBatchWorkerCount(count int) {
	globalManager.batchWorkerCount.Set(float64(count))
}

func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

func RecordRepositoryConflict() {
	globalManager.repositoryConflicts.Inc()
}

func UpdateActiveProfiles(count int) {
	globalManager.activeProfiles.Set(float64(count))
}

func RecordEventEmitted(eventType string) {
	globalManager.eventsEmitted.WithLabelValues(eventType).Inc()
}

func RecordEventSuppressed() {
	globalManager.eventsSuppressed.Inc()
}

func RecordEventEmitError() {
	globalManager.eventEmitErrors.Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry for serving scrapes.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

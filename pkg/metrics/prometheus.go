// Package metrics provides Prometheus metrics for the toolscout service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring core
	quizMatches         prometheus.Counter
	quizInvalid         prometheus.Counter
	recommendations     prometheus.Counter
	relatedRankings     prometheus.Counter
	clickAggregations   *prometheus.CounterVec
	operationLatency    *prometheus.HistogramVec
	catalogSize         prometheus.Gauge
	trackedEntities     prometheus.Gauge
	subscriptionsSent   prometheus.Counter
	subscriptionsFailed prometheus.Counter

	// Click ingestion
	clicksIngested  prometheus.Counter
	clicksDuplicate prometheus.Counter
	clicksPersisted prometheus.Counter
	clicksFailed    prometheus.Counter
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueRejected   *prometheus.CounterVec
	workerCount     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "toolscout",
		subsystem:        "core",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.quizMatches = m.counter("quiz_matches_total", "Quiz submissions that were scored against the catalog")
	m.quizInvalid = m.counter("quiz_invalid_total", "Quiz submissions rejected before scoring")
	m.recommendations = m.counter("recommendations_returned_total", "Recommendations returned across all quiz submissions")
	m.relatedRankings = m.counter("related_rankings_total", "Related-content rankings computed")
	m.clickAggregations = m.counterVec("click_aggregations_total", "Click dashboard aggregations by range", "range")
	m.operationLatency = m.histogramVec("operation_latency_ms", "Latency of core operations including provider reads", "operation")
	m.catalogSize = m.gauge("catalog_tools", "Published tools seen in the last catalog read")
	m.trackedEntities = m.gauge("tracked_entities", "Entities in the last click aggregation")
	m.subscriptionsSent = m.counter("subscriptions_sent_total", "Quiz submissions delivered to the subscription endpoint")
	m.subscriptionsFailed = m.counter("subscriptions_failed_total", "Quiz submissions the subscription endpoint did not accept")

	m.clicksIngested = m.counter("clicks_ingested_total", "Click events accepted for ingestion")
	m.clicksDuplicate = m.counter("clicks_duplicate_total", "Click events dropped as duplicates")
	m.clicksPersisted = m.counter("clicks_persisted_total", "Click events written to the event store")
	m.clicksFailed = m.counter("clicks_persist_errors_total", "Click events the event store rejected")
	m.queueSize = m.gauge("queue_size", "Click events waiting in the ingestion queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the ingestion queue")
	m.queueRejected = m.counterVec("queue_rejected_total", "Click events the queue refused", "reason")
	m.workerCount = m.gauge("worker_count", "Ingestion workers running")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_ms", "HTTP request duration", "endpoint", "method", "status_code")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Goroutines running")
}

// RecordQuizMatch counts a scored quiz and the recommendations it produced.
func RecordQuizMatch(recommendations int) {
	globalManager.quizMatches.Inc()
	globalManager.recommendations.Add(float64(recommendations))
}

// RecordQuizInvalid counts a quiz rejected before scoring.
func RecordQuizInvalid() { globalManager.quizInvalid.Inc() }

// RecordRelatedRanking counts a related-content ranking.
func RecordRelatedRanking() { globalManager.relatedRankings.Inc() }

// RecordClickAggregation counts a dashboard aggregation for rng.
func RecordClickAggregation(rng string, entities int) {
	globalManager.clickAggregations.WithLabelValues(rng).Inc()
	globalManager.trackedEntities.Set(float64(entities))
}

// RecordOperationLatency observes the latency of a named core operation.
func RecordOperationLatency(operation string, latencyMs float64) {
	globalManager.operationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateCatalogSize sets the number of published tools last read.
func UpdateCatalogSize(n int) { globalManager.catalogSize.Set(float64(n)) }

// RecordSubscription counts a subscription attempt by outcome.
func RecordSubscription(ok bool) {
	if ok {
		globalManager.subscriptionsSent.Inc()
		return
	}
	globalManager.subscriptionsFailed.Inc()
}

// RecordClickIngested counts a click accepted for ingestion.
func RecordClickIngested() { globalManager.clicksIngested.Inc() }

// RecordClickDuplicate counts a duplicate click.
func RecordClickDuplicate() { globalManager.clicksDuplicate.Inc() }

// RecordClickPersisted counts a click written by a worker, or a failed write.
func RecordClickPersisted(ok bool) {
	if ok {
		globalManager.clicksPersisted.Inc()
		return
	}
	globalManager.clicksFailed.Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

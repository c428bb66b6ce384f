// Package metrics provides Prometheus metrics for the rinkline service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Capture
	placements     *prometheus.CounterVec
	faceoffSnaps   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	commits        *prometheus.CounterVec

	// Chain reconstruction
	chainsBuilt           prometheus.Counter
	chainLength           prometheus.Histogram
	chainLinks            *prometheus.CounterVec
	chainStops            *prometheus.CounterVec
	reconstructionLatency prometheus.Histogram
	poolSize              prometheus.Histogram

	// Repository
	eventsStored           prometheus.Counter
	repositoryWriteLatency prometheus.Histogram
	repositoryQueryLatency prometheus.Histogram
	repositoryErrors       *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rinkline",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.placements = auto.NewCounterVec(
		m.counterOpts("placements_total", "Coordinates placed during capture by target and outcome"),
		[]string{"target", "outcome"},
	)
	m.faceoffSnaps = auto.NewCounterVec(
		m.counterOpts("faceoff_snaps_total", "Faceoff clicks snapped onto a reference dot"),
		[]string{"dot"},
	)
	m.activeSessions = auto.NewGauge(m.gaugeOpts("capture_sessions_active", "Capture sessions currently open"))
	m.commits = auto.NewCounterVec(
		m.counterOpts("capture_commits_total", "Capture commits by result"),
		[]string{"result"},
	)

	m.chainsBuilt = auto.NewCounter(m.counterOpts("chains_built_total", "Chains reconstructed"))
	m.chainLength = auto.NewHistogram(m.histogramOpts(
		"chain_length", "Number of events per reconstructed chain",
		prometheus.LinearBuckets(1, 1, 10),
	))
	m.chainLinks = auto.NewCounterVec(
		m.counterOpts("chain_links_total", "Predecessors found by linkage strategy"),
		[]string{"strategy"},
	)
	m.chainStops = auto.NewCounterVec(
		m.counterOpts("chain_stops_total", "Why chain reconstruction stopped"),
		[]string{"reason"},
	)
	m.reconstructionLatency = auto.NewHistogram(m.histogramOpts(
		"reconstruction_latency_milliseconds", "Time to rebuild all chains of one game", nil,
	))
	m.poolSize = auto.NewHistogram(m.histogramOpts(
		"event_pool_size", "Events per pool handed to the reconstructor",
		prometheus.ExponentialBuckets(16, 2, 10),
	))

	m.eventsStored = auto.NewCounter(m.counterOpts("events_stored_total", "Events persisted to the repository"))
	m.repositoryWriteLatency = auto.NewHistogram(m.histogramOpts(
		"repository_write_latency_milliseconds", "Repository write latency", nil,
	))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts(
		"repository_query_latency_milliseconds", "Repository query latency", nil,
	))
	m.repositoryErrors = auto.NewCounterVec(
		m.counterOpts("repository_errors_total", "Repository failures by operation"),
		[]string{"op"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Events waiting to be persisted"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum persistence queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size over capacity"))
	m.queueEnqueueTotal = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Events enqueued for persistence"))
	m.queueDequeueTotal = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Events dequeued by workers"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueues"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Persistence workers running"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Time a worker spends on one event", nil,
	))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Events a worker failed to persist"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", nil),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Capture.

// RecordPlacement counts a placed coordinate.
func RecordPlacement(target, outcome string) {
	globalManager.placements.WithLabelValues(target, outcome).Inc()
}

// RecordFaceoffSnap counts a click snapped onto dot.
func RecordFaceoffSnap(dot string) {
	globalManager.faceoffSnaps.WithLabelValues(dot).Inc()
}

// UpdateActiveSessions sets the number of open capture sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordCommit counts a capture commit by result.
func RecordCommit(result string) {
	globalManager.commits.WithLabelValues(result).Inc()
}

// Chains.

// RecordChain records one reconstructed chain.
func RecordChain(length int, stop string) {
	globalManager.chainsBuilt.Inc()
	globalManager.chainLength.Observe(float64(length))
	globalManager.chainStops.WithLabelValues(stop).Inc()
}

// RecordChainLink counts a predecessor found by strategy.
func RecordChainLink(strategy string) {
	globalManager.chainLinks.WithLabelValues(strategy).Inc()
}

// RecordReconstruction records the latency and pool size of one run.
func RecordReconstruction(latencyMs float64, poolSize int) {
	globalManager.reconstructionLatency.Observe(latencyMs)
	globalManager.poolSize.Observe(float64(poolSize))
}

// Repository.

// RecordEventStored counts a persisted event and its write latency.
func RecordEventStored(latencyMs float64) {
	globalManager.eventsStored.Inc()
	globalManager.repositoryWriteLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records a read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositoryError counts a failed repository operation.
func RecordRepositoryError(op string) {
	globalManager.repositoryErrors.WithLabelValues(op).Inc()
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Workers.

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry all package-level metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

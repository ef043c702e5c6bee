// Package metrics provides Prometheus metrics for the lyrics classifier.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the lyrics service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Training
	trainingRuns        *prometheus.CounterVec
	trainingDuration    prometheus.Histogram
	bestMetric          prometheus.Gauge
	corpusRowsPerGenre  *prometheus.GaugeVec
	trainingTableRows   prometheus.Gauge
	corpusSplitsWritten prometheus.Counter
	corpusSplitsSkipped prometheus.Counter

	// Cross-validation
	foldEvaluations *prometheus.CounterVec
	foldLatency     prometheus.Histogram
	gridSize        prometheus.Gauge

	// Prediction
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	modelLoads        *prometheus.CounterVec

	// Queue / workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueRejects     prometheus.Counter
	workerActive     prometheus.Gauge
	workerErrorCount prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lyrics",
		subsystem:        "classifier",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.trainingRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "training_runs_total",
		Help:        "Training runs by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.trainingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "training_duration_seconds",
		Help:        "Wall time of a full split/load/train/save run",
		Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		ConstLabels: constLabels,
	})

	m.bestMetric = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "best_model_metric",
		Help:        "Average cross-validation metric of the last selected model",
		ConstLabels: constLabels,
	})

	m.corpusRowsPerGenre = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "corpus_rows",
		Help:        "Filtered lyric lines loaded per genre in the last run",
		ConstLabels: constLabels,
	}, []string{"genre"})

	m.trainingTableRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "training_table_rows",
		Help:        "Rows in the last materialized training table",
		ConstLabels: constLabels,
	})

	m.corpusSplitsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "corpus_splits_written_total",
		Help:        "Genre directories written while splitting a merged corpus",
		ConstLabels: constLabels,
	})

	m.corpusSplitsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "corpus_splits_skipped_total",
		Help:        "Genre directories left untouched because they already existed",
		ConstLabels: constLabels,
	})

	m.foldEvaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_evaluations_total",
		Help:        "Cross-validation fold fits by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.foldLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_latency_milliseconds",
		Help:        "Fit plus evaluation time of a single fold",
		Buckets:     []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		ConstLabels: constLabels,
	})

	m.gridSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "param_grid_size",
		Help:        "Number of hyperparameter combinations in the last search",
		ConstLabels: constLabels,
	})

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_total",
		Help:        "Predictions served by predicted genre",
		ConstLabels: constLabels,
	}, []string{"genre"})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_latency_milliseconds",
		Help:        "Model load plus transform time of a prediction",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.modelLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_loads_total",
		Help:        "Model store loads by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_queue_size",
		Help:        "Pending fold jobs",
		ConstLabels: constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_queue_capacity",
		Help:        "Capacity of the fold job queue",
		ConstLabels: constLabels,
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_queue_enqueued_total",
		Help:        "Fold jobs enqueued",
		ConstLabels: constLabels,
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_queue_dequeued_total",
		Help:        "Fold jobs handed to workers",
		ConstLabels: constLabels,
	})

	m.queueRejects = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_queue_rejected_total",
		Help:        "Fold jobs rejected because the queue was closed or full",
		ConstLabels: constLabels,
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_workers_active",
		Help:        "Workers currently running fold jobs",
		ConstLabels: constLabels,
	})

	m.workerErrorCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_worker_errors_total",
		Help:        "Fold jobs that failed inside a worker",
		ConstLabels: constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors by component and error type",
		ConstLabels: constLabels,
	}, []string{"component", "error_type"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "HTTP errors by endpoint, method and error type",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "error_type"})
}

func on() bool { return globalManager != nil && globalManager.enabled }

// Training metrics.

// RecordTrainingRun counts a finished training run; outcome is "success" or "failure".
func RecordTrainingRun(outcome string, took time.Duration) {
	if !on() {
		return
	}
	globalManager.trainingRuns.WithLabelValues(outcome).Inc()
	globalManager.trainingDuration.Observe(took.Seconds())
}

// UpdateBestMetric sets the best average cross-validation metric.
func UpdateBestMetric(v float64) {
	if on() {
		globalManager.bestMetric.Set(v)
	}
}

// UpdateCorpusRows sets the filtered row count loaded for a genre.
func UpdateCorpusRows(genre string, rows int) {
	if on() {
		globalManager.corpusRowsPerGenre.WithLabelValues(genre).Set(float64(rows))
	}
}

// UpdateTrainingTableRows sets the size of the materialized training table.
func UpdateTrainingTableRows(rows int) {
	if on() {
		globalManager.trainingTableRows.Set(float64(rows))
	}
}

// RecordCorpusSplit counts a genre directory written or skipped by the corpus split.
func RecordCorpusSplit(written bool) {
	if !on() {
		return
	}
	if written {
		globalManager.corpusSplitsWritten.Inc()
		return
	}
	globalManager.corpusSplitsSkipped.Inc()
}

// Cross-validation metrics.

// RecordFoldEvaluation counts a fold fit and observes its latency.
func RecordFoldEvaluation(outcome string, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.foldEvaluations.WithLabelValues(outcome).Inc()
	globalManager.foldLatency.Observe(latencyMs)
}

// UpdateGridSize sets the number of evaluated hyperparameter combinations.
func UpdateGridSize(n int) {
	if on() {
		globalManager.gridSize.Set(float64(n))
	}
}

// Prediction metrics.

// RecordPrediction counts a prediction for genre and observes latency.
func RecordPrediction(genre string, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.predictions.WithLabelValues(genre).Inc()
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordModelLoad counts a model store load; outcome is "success" or "failure".
func RecordModelLoad(outcome string) {
	if on() {
		globalManager.modelLoads.WithLabelValues(outcome).Inc()
	}
}

// Queue and worker metrics.

// UpdateQueueSize sets the current number of pending fold jobs.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the fold queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueues.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeues.Inc()
	}
}

// RecordQueueReject increments the rejected enqueue counter.
func RecordQueueReject() {
	if on() {
		globalManager.queueRejects.Inc()
	}
}

// AddActiveWorkers adjusts the active worker gauge by delta.
func AddActiveWorkers(delta int) {
	if on() {
		globalManager.workerActive.Add(float64(delta))
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrorCount.Inc()
	}
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// Error metrics.

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the early-warning pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the pipeline. The CLI does not
// serve a scrape endpoint itself; the registry is exposed so embedding
// processes can mount it.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Import Metrics - row-level outcomes of a reconciler run
	rowsProcessed prometheus.Counter
	rowsInserted  prometheus.Counter
	rowsDuplicate prometheus.Counter
	rowsInvalid   prometheus.Counter

	// Scoring Metrics
	scoringRuns     prometheus.Counter
	scholarsScored  prometheus.Gauge
	signalsInWindow prometheus.Gauge

	// Run Duration Metrics
	importDuration  prometheus.Histogram
	scoringDuration prometheus.Histogram

	// Store Metrics
	storeErrors prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "earlywarn",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.rowsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "import_rows_processed_total",
		Help:      "Total number of import rows processed",
	})

	m.rowsInserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "import_rows_inserted_total",
		Help:      "Total number of signals newly inserted by import",
	})

	m.rowsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "import_rows_duplicate_total",
		Help:      "Total number of rows skipped because the source key already existed",
	})

	m.rowsInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "import_rows_invalid_total",
		Help:      "Total number of rows rejected by validation",
	})

	m.scoringRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_runs_total",
		Help:      "Total number of scoring runs",
	})

	m.scholarsScored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scholars_scored",
		Help:      "Number of scholars in the most recent scoring run",
	})

	m.signalsInWindow = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_in_window",
		Help:      "Number of signals considered by the most recent scoring run",
	})

	m.importDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "import_duration_seconds",
		Help:      "Histogram of full import run durations in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_seconds",
		Help:      "Histogram of scoring run durations in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of store-level failures",
	})
}

// RecordRowProcessed increments the processed-row counter.
func RecordRowProcessed() {
	if globalManager != nil && globalManager.enabled {
		globalManager.rowsProcessed.Inc()
	}
}

// RecordRowInserted increments the inserted-row counter.
func RecordRowInserted() {
	if globalManager != nil && globalManager.enabled {
		globalManager.rowsInserted.Inc()
	}
}

// RecordRowDuplicate increments the duplicate-row counter.
func RecordRowDuplicate() {
	if globalManager != nil && globalManager.enabled {
		globalManager.rowsDuplicate.Inc()
	}
}

// RecordRowInvalid increments the invalid-row counter.
func RecordRowInvalid() {
	if globalManager != nil && globalManager.enabled {
		globalManager.rowsInvalid.Inc()
	}
}

// RecordScoringRun increments the scoring-run counter.
func RecordScoringRun() {
	if globalManager != nil && globalManager.enabled {
		globalManager.scoringRuns.Inc()
	}
}

// UpdateScholarsScored records the size of the latest scoring result.
func UpdateScholarsScored(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.scholarsScored.Set(float64(count))
	}
}

// UpdateSignalsInWindow records how many signals the latest run considered.
func UpdateSignalsInWindow(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.signalsInWindow.Set(float64(count))
	}
}

// RecordImportDuration observes one full import run.
func RecordImportDuration(seconds float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.importDuration.Observe(seconds)
	}
}

// RecordScoringDuration observes one scoring run.
func RecordScoringDuration(seconds float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.scoringDuration.Observe(seconds)
	}
}

// RecordStoreError increments the store failure counter.
func RecordStoreError() {
	if globalManager != nil && globalManager.enabled {
		globalManager.storeErrors.Inc()
	}
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

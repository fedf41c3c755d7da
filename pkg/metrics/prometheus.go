// Package metrics provides Prometheus metrics for the file series service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Selection outcome label values.
const (
	SelectionOK         = "ok"
	SelectionMultiInput = "multi_input"
	SelectionNoInputs   = "no_inputs"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Registry metrics
	timeRangesRegistered prometheus.Counter
	missingTimeInfo      prometheus.Counter
	invalidTimeInfo      prometheus.Counter
	duplicateStarts      prometheus.Counter
	registeredInputs     prometheus.Gauge
	aggregateSteps       prometheus.Gauge

	// Controller metrics
	probes          prometheus.Counter
	probeCacheHits  prometheus.Counter
	synthesized     prometheus.Counter
	describes       *prometheus.CounterVec
	describeLatency prometheus.Histogram
	selections      *prometheus.CounterVec
	fetches         *prometheus.CounterVec
	fetchLatency    prometheus.Histogram

	// Host metrics
	seriesHosted  prometheus.Gauge
	manifestReads *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fileseries",
		subsystem:        "timeline",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.timeRangesRegistered = m.counter("time_ranges_registered_total", "Inputs whose time information was registered")
	m.missingTimeInfo = m.counter("missing_time_info_total", "Inputs that reported neither a time range nor time steps")
	m.invalidTimeInfo = m.counter("invalid_time_info_total", "Inputs that reported NaN or inverted time ranges")
	m.duplicateStarts = m.counter("duplicate_start_total", "Registrations whose start time collided with another input")
	m.registeredInputs = m.gauge("registered_inputs", "Inputs currently present in the ordered time index")
	m.aggregateSteps = m.gauge("aggregate_steps", "Number of time steps in the last published aggregate timeline")

	m.probes = m.counter("probes_total", "Reader time probes issued")
	m.probeCacheHits = m.counter("probe_cache_hits_total", "Probes skipped because the input was the last one probed")
	m.synthesized = m.counter("synthesized_timelines_total", "Describe passes that synthesized one time step per input")
	m.describes = m.counterVec("describes_total", "Describe passes by outcome", "outcome")
	m.describeLatency = m.histogram("describe_latency_milliseconds", "Describe pass latency in milliseconds", m.histogramBuckets)
	m.selections = m.counterVec("selections_total", "Input selections by outcome", "outcome")
	m.fetches = m.counterVec("fetches_total", "Delegated data productions by outcome", "outcome")
	m.fetchLatency = m.histogram("fetch_latency_milliseconds", "Delegated data production latency in milliseconds", m.histogramBuckets)

	m.seriesHosted = m.gauge("series_hosted", "Series currently hosted by the service")
	m.manifestReads = m.counterVec("manifest_reads_total", "Manifest reads by outcome", "outcome")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that failed", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Registry metrics.

// RecordTimeRangeRegistered counts a successful registration.
func RecordTimeRangeRegistered() { globalManager.timeRangesRegistered.Inc() }

// RecordMissingTimeInfo counts an input skipped for lack of time information.
func RecordMissingTimeInfo() { globalManager.missingTimeInfo.Inc() }

// RecordInvalidTimeInfo counts an input rejected for malformed time information.
func RecordInvalidTimeInfo() { globalManager.invalidTimeInfo.Inc() }

// RecordDuplicateStart counts a start-time collision.
func RecordDuplicateStart() { globalManager.duplicateStarts.Inc() }

// UpdateRegisteredInputs sets the ordered index size.
func UpdateRegisteredInputs(count int) { globalManager.registeredInputs.Set(float64(count)) }

// UpdateAggregateSteps sets the published step count.
func UpdateAggregateSteps(count int) { globalManager.aggregateSteps.Set(float64(count)) }

// Controller metrics.

// RecordProbe counts a reader probe.
func RecordProbe() { globalManager.probes.Inc() }

// RecordProbeCacheHit counts a probe elided by the last-probed cache.
func RecordProbeCacheHit() { globalManager.probeCacheHits.Inc() }

// RecordSynthesizedTimeline counts a describe pass that fell back to ordinal time.
func RecordSynthesizedTimeline() { globalManager.synthesized.Inc() }

// RecordDescribe counts a describe pass and its latency.
func RecordDescribe(outcome string, latencyMs float64) {
	globalManager.describes.WithLabelValues(outcome).Inc()
	globalManager.describeLatency.Observe(latencyMs)
}

// RecordSelection counts an input selection by outcome.
func RecordSelection(outcome string) { globalManager.selections.WithLabelValues(outcome).Inc() }

// RecordFetch counts a delegated production and its latency.
func RecordFetch(outcome string, latencyMs float64) {
	globalManager.fetches.WithLabelValues(outcome).Inc()
	globalManager.fetchLatency.Observe(latencyMs)
}

// Host metrics.

// UpdateSeriesHosted sets the number of hosted series.
func UpdateSeriesHosted(count int) { globalManager.seriesHosted.Set(float64(count)) }

// RecordManifestRead counts a manifest read by outcome.
func RecordManifestRead(outcome string) { globalManager.manifestReads.WithLabelValues(outcome).Inc() }

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the tournament engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcome labels.
const (
	OutcomeOK            = "ok"
	OutcomeScriptError   = "script_error"
	OutcomeInvalidMove   = "invalid_move"
	OutcomeNoSession     = "no_session"
	OutcomeResourceLimit = "resource_limit"
	OutcomeTimeout       = "timeout"
	OutcomeSuperseded    = "superseded"
)

// Manager owns every collector exported by the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	stepBuckets      []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Tournament execution
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	gamesPlayed  prometheus.Counter
	sandboxSteps prometheus.Histogram
	runQueueLen  prometheus.Gauge
	generation   prometheus.Gauge

	// Live synchronization
	connectionAttempts prometheus.Counter
	connectionState    prometheus.Gauge
	syncMessages       *prometheus.CounterVec
	reruns             *prometheus.CounterVec
	submissions        *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dilemma",
		subsystem:        "tournament",
		histogramBuckets: prometheus.DefBuckets,
		stepBuckets:      prometheus.ExponentialBuckets(1_000, 4, 10),
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

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("runs_total"),
		Help:        "Tournament runs by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_duration_seconds"),
		Help:        "Wall-clock duration of sandboxed tournament runs",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.gamesPlayed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("games_total"),
		Help:        "Games closed by the execution bridge",
		ConstLabels: labels,
	})

	m.sandboxSteps = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sandbox_steps"),
		Help:        "Interpreter steps consumed per run",
		Buckets:     m.stepBuckets,
		ConstLabels: labels,
	})

	m.runQueueLen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_queue_length"),
		Help:        "Run requests waiting for the runner",
		ConstLabels: labels,
	})

	m.generation = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_generation"),
		Help:        "Latest requested run generation",
		ConstLabels: labels,
	})

	m.connectionAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "sync",
		Name:        m.name("connection_attempts_total"),
		Help:        "Connection attempts to the tournament coordinator",
		ConstLabels: labels,
	})

	m.connectionState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "sync",
		Name:        m.name("connection_state"),
		Help:        "0 disconnected, 1 connecting, 2 connected",
		ConstLabels: labels,
	})

	m.syncMessages = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "sync",
		Name:        m.name("messages_total"),
		Help:        "Coordinator messages by kind and direction",
		ConstLabels: labels,
	}, []string{"kind", "direction"})

	m.reruns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "sync",
		Name:        m.name("reruns_total"),
		Help:        "Merged source fetches that triggered or skipped a rerun",
		ConstLabels: labels,
	}, []string{"decision"})

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "sync",
		Name:        m.name("submissions_total"),
		Help:        "Strategy submissions by slot and state",
		ConstLabels: labels,
	}, []string{"position", "state"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("requests_total"),
		Help:        "HTTP requests by endpoint, method and status",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_total"),
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})
}

// RecordRun records a finished run with its outcome, duration and steps.
func RecordRun(outcome string, duration time.Duration, steps uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.runs.WithLabelValues(outcome).Inc()
	globalManager.runDuration.Observe(duration.Seconds())
	globalManager.sandboxSteps.Observe(float64(steps))
}

// RecordSupersededRun counts a run whose result was dropped as stale.
func RecordSupersededRun() {
	globalManager.runs.WithLabelValues(OutcomeSuperseded).Inc()
}

// RecordGamePlayed counts one closed game.
func RecordGamePlayed() {
	globalManager.gamesPlayed.Inc()
}

// UpdateRunQueueLength sets the number of pending run requests.
func UpdateRunQueueLength(n int) {
	globalManager.runQueueLen.Set(float64(n))
}

// UpdateRunGeneration sets the latest requested generation.
func UpdateRunGeneration(gen uint64) {
	globalManager.generation.Set(float64(gen))
}

// RecordConnectionAttempt counts a coordinator connection attempt.
func RecordConnectionAttempt() {
	globalManager.connectionAttempts.Inc()
}

// UpdateConnectionState sets the connection state gauge.
func UpdateConnectionState(state int) {
	globalManager.connectionState.Set(float64(state))
}

// RecordSyncMessage counts a coordinator message; direction is "in" or "out".
func RecordSyncMessage(kind, direction string) {
	globalManager.syncMessages.WithLabelValues(kind, direction).Inc()
}

// RecordRerunDecision counts a fetched document; decision is "triggered" or "skipped".
func RecordRerunDecision(decision string) {
	globalManager.reruns.WithLabelValues(decision).Inc()
}

// RecordSubmission counts a submit; state is "sent" or "acknowledged".
func RecordSubmission(position, state string) {
	globalManager.submissions.WithLabelValues(position, state).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

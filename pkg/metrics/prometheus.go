// Package metrics provides Prometheus metrics for the squadup service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// candidateBuckets covers draft enumeration sizes from a five-a-side roster
// up to the two-team guard.
var candidateBuckets = prometheus.ExponentialBuckets(1, 4, 10) //nolint:gochecknoglobals

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ledger
	recalculations     prometheus.Counter
	recalcLatency      prometheus.Histogram
	ledgerChainErrors  prometheus.Counter
	scoreEdits         *prometheus.CounterVec
	ledgerEntriesTotal prometheus.Gauge

	// Draft
	draftRequests   *prometheus.CounterVec
	draftCandidates prometheus.Histogram
	draftLatency    prometheus.Histogram
	draftRejections *prometheus.CounterVec
	draftPartial    prometheus.Counter

	// Stats
	statsComputations *prometheus.CounterVec
	statsLatency      prometheus.Histogram

	// Roster
	totalPlayers prometheus.Gauge
	totalMatches prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Repository
	repositoryLatency *prometheus.HistogramVec
	repositoryErrors  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "squadup",
		subsystem:        "core",
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.recalculations = m.counter("recalculations_total", "Total number of full ledger replays")
	m.recalcLatency = m.histogram("recalculation_latency_milliseconds", "Ledger replay latency in milliseconds", m.histogramBuckets)
	m.ledgerChainErrors = m.counter("ledger_chain_errors_total", "Ledger chains found inconsistent during replay")
	m.scoreEdits = m.counterVec("score_edits_total", "Match score entries by kind (first entry or retroactive edit)", "kind")
	m.ledgerEntriesTotal = m.gauge("ledger_entries", "Ledger entries touched by the last mutation")

	m.draftRequests = m.counterVec("draft_requests_total", "Draft requests by team count", "teams")
	m.draftCandidates = m.histogram("draft_candidates", "Candidate partitions enumerated per draft", candidateBuckets)
	m.draftLatency = m.histogram("draft_latency_milliseconds", "Draft enumeration latency in milliseconds", m.histogramBuckets)
	m.draftRejections = m.counterVec("draft_rejections_total", "Draft requests rejected by pre-flight checks", "reason")
	m.draftPartial = m.counter("draft_partial_total", "Drafts truncated by the candidate limit")

	m.statsComputations = m.counterVec("stats_computations_total", "Statistics computations by scope", "scope")
	m.statsLatency = m.histogram("stats_latency_milliseconds", "Statistics computation latency in milliseconds", m.histogramBuckets)

	m.totalPlayers = m.gauge("players", "Players known to the ranking store")
	m.totalMatches = m.gauge("matches", "Matches created since start")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("http_errors_total", "HTTP error responses by endpoint and error code", "endpoint", "method", "code")

	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Repository call latency in milliseconds", "op")
	m.repositoryErrors = m.counterVec("repository_errors_total", "Repository call failures", "op")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordRecalculation counts one ledger replay and its latency.
func RecordRecalculation(latencyMs float64) {
	globalManager.recalculations.Inc()
	globalManager.recalcLatency.Observe(latencyMs)
}

// RecordLedgerChainError counts an inconsistent ledger chain.
func RecordLedgerChainError() {
	globalManager.ledgerChainErrors.Inc()
}

// RecordScoreEdit counts a match score entry. kind is "first" or "edit".
func RecordScoreEdit(kind string) {
	globalManager.scoreEdits.WithLabelValues(kind).Inc()
}

// UpdateLedgerEntries sets the number of entries touched by the last mutation.
func UpdateLedgerEntries(count int) {
	globalManager.ledgerEntriesTotal.Set(float64(count))
}

// RecordDraft records a completed draft.
func RecordDraft(teams string, candidates int, latencyMs float64, partial bool) {
	globalManager.draftRequests.WithLabelValues(teams).Inc()
	globalManager.draftCandidates.Observe(float64(candidates))
	globalManager.draftLatency.Observe(latencyMs)
	if partial {
		globalManager.draftPartial.Inc()
	}
}

// RecordDraftRejection counts a draft refused before enumeration.
func RecordDraftRejection(reason string) {
	globalManager.draftRejections.WithLabelValues(reason).Inc()
}

// RecordStatsComputation records a stats computation for scope "player" or "squad".
func RecordStatsComputation(scope string, latencyMs float64) {
	globalManager.statsComputations.WithLabelValues(scope).Inc()
	globalManager.statsLatency.Observe(latencyMs)
}

// UpdateTotalPlayers sets the players gauge.
func UpdateTotalPlayers(count int) {
	globalManager.totalPlayers.Set(float64(count))
}

// IncMatches bumps the matches gauge by delta (negative on deletion).
func IncMatches(delta int) {
	globalManager.totalMatches.Add(float64(delta))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response with its code.
func RecordErrorByEndpoint(endpoint, method, code string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, code).Inc()
}

// RecordRepositoryLatency records one repository call.
func RecordRepositoryLatency(op string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordRepositoryError counts a failed repository call.
func RecordRepositoryError(op string) {
	globalManager.repositoryErrors.WithLabelValues(op).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

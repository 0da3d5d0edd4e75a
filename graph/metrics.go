package graph

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects Prometheus metrics for compilation, tick
// execution and the tooling around it.
//
// Metrics exposed (all namespaced with "graphvm_"):
//
// 1. compiles_total (counter): Compile attempts.
// Labels: graph_id, result (ok/failed).
//
// 2. execute_latency_ms (histogram): Duration of one Execute pass.
// Labels: graph_id.
// Buckets: [0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100].
//
// 3. nodes_evaluated_total (counter): Node evaluations across all passes.
// Labels: graph_id.
//
// 4. cache_lookups_total (counter): Cache lookups.
// Labels: result (hit/miss).
//
// 5. cache_entries (gauge): Entries held by the most recently updated cache.
//
// 6. determinism_checks_total (counter): Determinism validator runs.
// Labels: result (passed/failed).
//
// 7. proposals_total (counter): Sandbox transitions.
// Labels: status (pending/approved/rejected).
//
// 8. pending_proposals (gauge): Proposals awaiting review.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	g := graph.New[anim.PortType, anim.Context](graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// All methods are safe on a nil receiver so components can record
// unconditionally.
type PrometheusMetrics struct {
	compiles       *prometheus.CounterVec
	executeLatency *prometheus.HistogramVec
	nodesEvaluated *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	determinismChecks *prometheus.CounterVec

	proposals        *prometheus.CounterVec
	pendingProposals prometheus.Gauge

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers every metric with registry.
//
// A nil registry falls back to prometheus.DefaultRegisterer. Registering two
// collectors against the same registry panics, so tests should use
// prometheus.NewRegistry().
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.compiles = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphvm",
		Name:      "compiles_total",
		Help:      "Graph compilation attempts by outcome",
	}, []string{"graph_id", "result"})

	pm.executeLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "graphvm",
		Name:      "execute_latency_ms",
		Help:      "Duration of one Execute pass in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
	}, []string{"graph_id"})

	pm.nodesEvaluated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphvm",
		Name:      "nodes_evaluated_total",
		Help:      "Node evaluations across all Execute passes",
	}, []string{"graph_id"})

	pm.cacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphvm",
		Name:      "cache_lookups_total",
		Help:      "Evaluation cache lookups by outcome",
	}, []string{"result"})

	pm.cacheEntries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "graphvm",
		Name:      "cache_entries",
		Help:      "Entries currently held by the evaluation cache",
	})

	pm.determinismChecks = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphvm",
		Name:      "determinism_checks_total",
		Help:      "Determinism validator runs by outcome",
	}, []string{"result"})

	pm.proposals = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphvm",
		Name:      "proposals_total",
		Help:      "Sandbox proposal transitions by resulting status",
	}, []string{"status"})

	pm.pendingProposals = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "graphvm",
		Name:      "pending_proposals",
		Help:      "Proposals awaiting human review",
	})

	return pm
}

func (pm *PrometheusMetrics) active() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// RecordCompile counts one Compile attempt.
func (pm *PrometheusMetrics) RecordCompile(graphID uint64, ok bool) {
	if !pm.active() {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	pm.compiles.WithLabelValues(strconv.FormatUint(graphID, 10), result).Inc()
}

// RecordExecute observes one Execute pass that evaluated nodes nodes.
func (pm *PrometheusMetrics) RecordExecute(graphID uint64, latency time.Duration, nodes int) {
	if !pm.active() {
		return
	}
	id := strconv.FormatUint(graphID, 10)
	pm.executeLatency.WithLabelValues(id).Observe(float64(latency.Microseconds()) / 1000)
	pm.nodesEvaluated.WithLabelValues(id).Add(float64(nodes))
}

// RecordCacheLookup counts a cache hit or miss.
func (pm *PrometheusMetrics) RecordCacheLookup(hit bool) {
	if !pm.active() {
		return
	}
	result := "hit"
	if !hit {
		result = "miss"
	}
	pm.cacheLookups.WithLabelValues(result).Inc()
}

// SetCacheEntries sets the cache_entries gauge.
func (pm *PrometheusMetrics) SetCacheEntries(n int) {
	if !pm.active() {
		return
	}
	pm.cacheEntries.Set(float64(n))
}

// RecordDeterminismCheck counts one validator run.
func (pm *PrometheusMetrics) RecordDeterminismCheck(passed bool) {
	if !pm.active() {
		return
	}
	result := "passed"
	if !passed {
		result = "failed"
	}
	pm.determinismChecks.WithLabelValues(result).Inc()
}

// RecordProposal counts a proposal entering status.
func (pm *PrometheusMetrics) RecordProposal(status ProposalStatus) {
	if !pm.active() {
		return
	}
	pm.proposals.WithLabelValues(status.String()).Inc()
}

// SetPendingProposals sets the pending_proposals gauge.
func (pm *PrometheusMetrics) SetPendingProposals(n int) {
	if !pm.active() {
		return
	}
	pm.pendingProposals.Set(float64(n))
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

// Reset zeroes the gauges. Counters and histograms are cumulative and keep
// their observations.
func (pm *PrometheusMetrics) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.cacheEntries.Set(0)
	pm.pendingProposals.Set(0)
}

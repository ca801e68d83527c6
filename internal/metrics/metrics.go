// Package metrics exposes Prometheus counters for sync runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sleeper_sync"

// Metrics holds the collectors registered for one process. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	leagueFailure *prometheus.CounterVec
	weekFailure   prometheus.Counter
	chunkFailure  *prometheus.CounterVec
	unmatched     prometheus.Counter
	brokenChains  prometheus.Counter
}

// New registers every collector on registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sync runs by operation and result.",
		}, []string{"operation", "result"}),
		leagueFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "league_failures_total",
			Help:      "Leagues whose contribution to a phase was dropped.",
		}, []string{"phase"}),
		weekFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "week_failures_total",
			Help:      "League weeks whose matchups were dropped.",
		}),
		chunkFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Bulk write chunks skipped after exhausting retries.",
		}, []string{"table"}),
		unmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bracket_unmatched_total",
			Help:      "Bracket nodes without a persisted matchup.",
		}),
		brokenChains: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broken_lineages_total",
			Help:      "League history chains that ended early.",
		}),
	}
	registry.MustRegister(m.runs, m.leagueFailure, m.weekFailure, m.chunkFailure, m.unmatched, m.brokenChains)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RunFinished(operation string, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.runs.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) LeagueFailed(phase string) {
	if m == nil {
		return
	}
	m.leagueFailure.WithLabelValues(phase).Inc()
}

func (m *Metrics) WeekFailed() {
	if m == nil {
		return
	}
	m.weekFailure.Inc()
}

func (m *Metrics) ChunkFailed(table string) {
	if m == nil {
		return
	}
	m.chunkFailure.WithLabelValues(table).Inc()
}

func (m *Metrics) BracketUnmatched(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unmatched.Add(float64(n))
}

func (m *Metrics) BrokenLineages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.brokenChains.Add(float64(n))
}

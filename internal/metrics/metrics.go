// Package metrics exposes prometheus counters for sync activity. Counters
// work without an exposition endpoint; the worker binary optionally serves
// them over HTTP when a metrics address is configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	PassesTotal    prometheus.Counter
	RecordsFetched *prometheus.CounterVec
	RecordsPruned  prometheus.Counter
	RecordsMissing prometheus.Counter
	TokensWritten  prometheus.Counter
}

// New builds the counter set and registers it with reg. Pass a fresh
// registry in tests to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PassesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediasync_passes_total",
			Help: "Completed reconciliation scope passes.",
		}),
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediasync_records_fetched_total",
			Help: "Records fetched and cached, by record type.",
		}, []string{"type"}),
		RecordsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediasync_records_pruned_total",
			Help: "Cache rows deleted because they vanished remotely.",
		}),
		RecordsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediasync_records_missing_total",
			Help: "Master index paths that failed to fetch during a pass.",
		}),
		TokensWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediasync_search_tokens_total",
			Help: "Search hash rows written.",
		}),
	}
	reg.MustRegister(m.PassesTotal, m.RecordsFetched, m.RecordsPruned, m.RecordsMissing, m.TokensWritten)
	return m
}

// NewNop returns an unregistered counter set for callers that do not
// report metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

package audit

import (
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes audit activity as Prometheus counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	events       *prometheus.CounterVec
	sinkFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "users",
			Name:      "audit_events_total",
			Help:      "Audit events by operation, outcome and reason.",
		}, []string{"operation", "outcome", "reason"}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "users",
			Name:      "audit_sink_failures_total",
			Help:      "Audit events a sink failed to accept.",
		}, []string{"sink"}),
	}
	reg.MustRegister(m.events, m.sinkFailures)
	return m
}

func (m *Metrics) observe(e models.AuditEvent) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(e.Operation, e.Outcome, e.Reason).Inc()
}

func (m *Metrics) sinkFailed(name string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(name).Inc()
}

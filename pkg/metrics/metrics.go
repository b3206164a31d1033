// Package metrics defines the operator's Prometheus metrics, registered
// through the controller-runtime metrics registry so they are served from
// the manager's own metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// StatusTransitionsTotal counts each status.state transition observed by
	// the Metric Event Producer.
	StatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionserver_status_transitions_total",
			Help: "Total number of SessionServer status.state transitions.",
		},
		[]string{"namespace", "from", "to"},
	)

	// ReconciliationsTotal counts reconcile attempts per outcome.
	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionserver_reconciliations_total",
			Help: "Total number of reconcile attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	// ReconciliationDuration observes reconcile latency.
	ReconciliationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sessionserver_reconciliation_duration_seconds",
			Help:    "Duration of SessionServer reconcile operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	// CullingActionsTotal counts hibernate/delete actions issued by the
	// Culling Controller, by reason (idle, age, starting, failed,
	// hibernated-age).
	CullingActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionserver_culling_actions_total",
			Help: "Total number of hibernate/delete actions issued by the culling controller.",
		},
		[]string{"namespace", "action", "reason"},
	)

	// IdleDuration observes the idle duration measured at the moment a
	// session is hibernated for idleness.
	IdleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sessionserver_idle_duration_seconds",
			Help:    "Idle duration observed at the time a session is hibernated for idleness.",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 21600, 86400},
		},
		[]string{"namespace"},
	)

	// MetricEventsDroppedTotal counts metric-sink queue overflow drops.
	MetricEventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionserver_metric_events_dropped_total",
			Help: "Total number of metric events dropped because the sink queue was full.",
		},
		[]string{"namespace"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		StatusTransitionsTotal,
		ReconciliationsTotal,
		ReconciliationDuration,
		CullingActionsTotal,
		IdleDuration,
		MetricEventsDroppedTotal,
	)
}

// RecordStatusTransition increments the transition counter.
func RecordStatusTransition(namespace, from, to string) {
	StatusTransitionsTotal.WithLabelValues(namespace, from, to).Inc()
}

// RecordReconciliation increments the reconciliation outcome counter.
func RecordReconciliation(outcome string) {
	ReconciliationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveReconciliationDuration records a reconcile handler's latency.
func ObserveReconciliationDuration(handler string, seconds float64) {
	ReconciliationDuration.WithLabelValues(handler).Observe(seconds)
}

// RecordCullingAction increments the culling-action counter.
func RecordCullingAction(namespace, action, reason string) {
	CullingActionsTotal.WithLabelValues(namespace, action, reason).Inc()
}

// ObserveIdleDuration records the idle duration at hibernation time.
func ObserveIdleDuration(namespace string, seconds float64) {
	IdleDuration.WithLabelValues(namespace).Observe(seconds)
}

// RecordMetricEventDropped increments the sink-overflow counter.
func RecordMetricEventDropped(namespace string) {
	MetricEventsDroppedTotal.WithLabelValues(namespace).Inc()
}

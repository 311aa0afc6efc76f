// Package metrics exposes Prometheus instrumentation for conversations,
// backend calls and artifact deliveries.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "batchbot"

// Metrics holds every collector on its own registry, so several instances can
// coexist in tests.
type Metrics struct {
	Registry *prometheus.Registry

	// ConversationsStarted counts entry commands accepted. Labels: flow
	ConversationsStarted *prometheus.CounterVec

	// ConversationsEnded counts terminal transitions. Labels: flow, outcome
	ConversationsEnded *prometheus.CounterVec

	// BackendRequests counts outbound HTTP calls. Labels: backend, op, status
	BackendRequests *prometheus.CounterVec

	// BackendDuration measures outbound HTTP latency. Labels: backend, op
	BackendDuration *prometheus.HistogramVec

	// Deliveries counts artifact sends. Labels: destination, result
	Deliveries *prometheus.CounterVec

	// AccessDenied counts commands refused by the access gate. Labels: handler
	AccessDenied *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ConversationsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "started_total",
			Help:      "Conversations started by entry command.",
		}, []string{"flow"}),
		ConversationsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "ended_total",
			Help:      "Conversations that reached the terminated state.",
		}, []string{"flow", "outcome"}),
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Outbound backend requests by status class.",
		}, []string{"backend", "op", "status"}),
		BackendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Outbound backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifact",
			Name:      "deliveries_total",
			Help:      "Artifact deliveries by destination and result.",
		}, []string{"destination", "result"}),
		AccessDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "denied_total",
			Help:      "Commands refused while owner-only mode is on.",
		}, []string{"handler"}),
	}
}

func (m *Metrics) ConversationStarted(flow string) {
	if m == nil {
		return
	}
	m.ConversationsStarted.WithLabelValues(flow).Inc()
}

func (m *Metrics) ConversationEnded(flow, outcome string) {
	if m == nil {
		return
	}
	m.ConversationsEnded.WithLabelValues(flow, outcome).Inc()
}

// BackendRequest records one outbound call. status is the HTTP code as text or
// "error" for transport failures.
func (m *Metrics) BackendRequest(backend, op, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(backend, op, status).Inc()
	m.BackendDuration.WithLabelValues(backend, op).Observe(took.Seconds())
}

func (m *Metrics) Delivery(destination, result string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(destination, result).Inc()
}

func (m *Metrics) Denied(handler string) {
	if m == nil {
		return
	}
	m.AccessDenied.WithLabelValues(handler).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks request latency per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

func (m *HTTPMetrics) Observe(method, route, status string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(method, normalizeLabel(route), status).Observe(d.Seconds())
}

// DomainMetrics counts business outcomes: order transitions, ledger results,
// chat answer sources and outbox dispatch results.
type DomainMetrics struct {
	transitions *prometheus.CounterVec
	ledger      *prometheus.CounterVec
	chat        *prometheus.CounterVec
	outbox      *prometheus.CounterVec
}

func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions by target status.",
		}, []string{"to"}),
		ledger: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Wallet operations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		chat: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_answers_total",
			Help: "Chat answers by source.",
		}, []string{"source"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_dispatch_total",
			Help: "Outbox dispatch results by event type.",
		}, []string{"event_type", "result"}),
	}
	reg.MustRegister(m.transitions, m.ledger, m.chat, m.outbox)
	return m
}

func (m *DomainMetrics) OrderTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func (m *DomainMetrics) LedgerOutcome(kind, outcome string) {
	if m == nil || m.ledger == nil {
		return
	}
	m.ledger.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func (m *DomainMetrics) ChatAnswer(source string) {
	if m == nil || m.chat == nil {
		return
	}
	m.chat.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *DomainMetrics) OutboxDispatch(eventType, result string) {
	if m == nil || m.outbox == nil {
		return
	}
	m.outbox.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

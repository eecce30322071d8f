package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomainMetrics(reg)

	m.OrderTransition("Preparing")
	m.OrderTransition("Preparing")
	m.LedgerOutcome("debit", "insufficient_funds")
	m.ChatAnswer("fallback")
	m.OutboxDispatch("order.placed", "published")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "order_transitions_total", "to", "Preparing")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "ledger_operations_total", "outcome", "insufficient_funds")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "chat_answers_total", "source", "fallback")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "outbox_dispatch_total", "result", "published")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/menu", "200", 40*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	sum, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/menu")
	require.NoError(t, err)
	assert.InDelta(t, 0.04, sum, 0.001)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var d *DomainMetrics
	var h *HTTPMetrics
	assert.NotPanics(t, func() {
		d.OrderTransition("Delivered")
		d.LedgerOutcome("credit", "ok")
		d.ChatAnswer("llm")
		d.OutboxDispatch("bid.approved", "dlq")
		h.Observe("POST", "/x", "500", time.Second)
		NewDomainMetrics(nil).ChatAnswer("llm")
	})
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveInvocation("math", true, time.Second)
	m.ObserveInvocation("", false, time.Second)
	m.ObserveCompletion("gpt-4o-mini", false, 10*time.Millisecond)
	m.ObserveCompletion("gpt-4o-mini", true, 10*time.Millisecond)
	m.ObserveUsage("gpt-4o-mini", 12, 30, 0.25)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("math", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("unclassified", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completionCalls.WithLabelValues("gpt-4o-mini", "failure")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.tokens.WithLabelValues("gpt-4o-mini", "completion")))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.costUSD.WithLabelValues("gpt-4o-mini")))

	_, err = New(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveInvocation("math", true, time.Second)
		m.ObserveCompletion("x", false, time.Second)
		m.ObserveUsage("x", 1, 1, 1)
	})
}

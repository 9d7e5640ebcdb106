// Package metrics exposes Prometheus collectors for engine invocations and
// completion calls. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "multiagent"

type Metrics struct {
	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	completionCalls    *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	tokens             *prometheus.CounterVec
	costUSD            *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Engine invocations by category and success flag.",
		}, []string{"category", "success"}),
		invocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of one engine invocation.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"category"}),
		completionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_calls_total",
			Help:      "Completion service calls by model and outcome.",
		}, []string{"model", "outcome"}),
		completionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion service calls.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"model"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Tokens reported by the completion service.",
		}, []string{"model", "kind"}),
		costUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_cost_usd_total",
			Help:      "Estimated completion cost in USD.",
		}, []string{"model"}),
	}

	for _, c := range []prometheus.Collector{
		m.invocations, m.invocationDuration, m.completionCalls,
		m.completionDuration, m.tokens, m.costUSD,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveInvocation records one finished engine invocation.
func (m *Metrics) ObserveInvocation(category string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unclassified"
	}
	m.invocations.WithLabelValues(category, strconv.FormatBool(success)).Inc()
	m.invocationDuration.WithLabelValues(category).Observe(elapsed.Seconds())
}

// ObserveCompletion records one completion call. failed marks a soft failure.
func (m *Metrics) ObserveCompletion(model string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failure"
	}
	m.completionCalls.WithLabelValues(model, outcome).Inc()
	m.completionDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// ObserveUsage records token usage and cost for one call.
func (m *Metrics) ObserveUsage(model string, promptTokens, completionTokens int, costUSD float64) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	m.tokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	m.costUSD.WithLabelValues(model).Add(costUSD)
}

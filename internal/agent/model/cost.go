package model

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M tokens (text tokens).
var defaultPricing = map[string]Pricing{
	"gemini-2.5-flash":        {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite":   {InputPerM: 0.10, OutputPerM: 0.40},
	"gpt-4o-mini":             {InputPerM: 0.15, OutputPerM: 0.60},
	"gpt-4o":                  {InputPerM: 2.50, OutputPerM: 10.00},
	"claude-3-5-haiku-latest": {InputPerM: 0.80, OutputPerM: 4.00},
}

// ResolvePricing returns hardcoded pricing for a model; unknown models cost zero.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

// UsageTracker accumulates completion usage for a single invocation.
type UsageTracker struct {
	mu    sync.Mutex
	usage Usage
}

// Add records one completion call. usage may be nil when the provider reports none.
func (t *UsageTracker) Add(usage *schema.TokenUsage, costUSD float64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.Calls++
	t.usage.TotalCostUSD += costUSD
	if usage != nil {
		t.usage.PromptTokens += usage.PromptTokens
		t.usage.CompletionTokens += usage.CompletionTokens
	}
}

// Snapshot returns the accumulated totals.
func (t *UsageTracker) Snapshot() Usage {
	if t == nil {
		return Usage{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}

type usageKey struct{}

// WithUsageTracker attaches t to ctx so completion clients can report into it.
func WithUsageTracker(ctx context.Context, t *UsageTracker) context.Context {
	return context.WithValue(ctx, usageKey{}, t)
}

// UsageTrackerFrom returns the tracker attached to ctx, or nil.
func UsageTrackerFrom(ctx context.Context) *UsageTracker {
	t, _ := ctx.Value(usageKey{}).(*UsageTracker)
	return t
}

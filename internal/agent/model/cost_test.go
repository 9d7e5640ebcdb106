package model

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}, ResolvePricing("gpt-4o-mini"))
	assert.InDelta(t, 0.15, in, 1e-9)
	assert.InDelta(t, 0.30, out, 1e-9)
	assert.InDelta(t, 0.45, total, 1e-9)

	_, _, total = ComputeCost(nil, ResolvePricing("gpt-4o-mini"))
	assert.Zero(t, total)

	_, _, total = ComputeCost(&schema.TokenUsage{PromptTokens: 10}, ResolvePricing("unknown-model"))
	assert.Zero(t, total)
}

func TestUsageTrackerContext(t *testing.T) {
	assert.Nil(t, UsageTrackerFrom(context.Background()))

	tracker := &UsageTracker{}
	ctx := WithUsageTracker(context.Background(), tracker)
	require.Same(t, tracker, UsageTrackerFrom(ctx))

	UsageTrackerFrom(ctx).Add(&schema.TokenUsage{PromptTokens: 3, CompletionTokens: 4}, 0.5)
	UsageTrackerFrom(ctx).Add(nil, 0)

	got := tracker.Snapshot()
	assert.Equal(t, Usage{Calls: 2, PromptTokens: 3, CompletionTokens: 4, TotalCostUSD: 0.5}, got)

	var nilTracker *UsageTracker
	nilTracker.Add(nil, 1)
	assert.Equal(t, Usage{}, nilTracker.Snapshot())
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", ResolveModel(ProviderOpenAI, ""))
	assert.Equal(t, "custom", ResolveModel(ProviderOpenAI, " custom "))

	p, err := CompletionConfig{Provider: "Gemini"}.ParseProvider()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p)

	_, err = CompletionConfig{Provider: "llama"}.ParseProvider()
	assert.Error(t, err)
}

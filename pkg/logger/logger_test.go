package logx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Chative-multiagent/server/internal/core"
)

func TestWithInvocationTagsEvents(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(func() { Init() })

	ctx := WithInvocation(context.Background(), "inv-1")
	Ctx(ctx).Info().Msg("tagged")
	Ctx(context.Background()).Info().Msg("untagged")
	Debug().Msg("dropped at info")

	out := buf.String()
	assert.Contains(t, out, `"invocation_id":"inv-1"`)
	assert.Contains(t, out, `"message":"untagged"`)
	assert.NotContains(t, out, "dropped at info")
}

func TestLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Level: "warn", Output: &buf})
	t.Cleanup(func() { Init() })

	Info().Msg("quiet")
	Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

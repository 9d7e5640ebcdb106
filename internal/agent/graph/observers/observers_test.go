package observers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-multiagent/server/internal/agent/model"
	"github.com/Chative-multiagent/server/internal/core"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Level: "debug", Output: &buf})
	t.Cleanup(func() { logx.Init() })
	return &buf
}

func TestNodeHandlerLogsLifecycle(t *testing.T) {
	buf := captureLogs(t)
	h := newNodeHandler()
	info := &einocb.RunInfo{Name: "math_handler"}

	ctx := h.OnStart(context.Background(), info, &model.RequestState{Query: "2+2"})
	h.OnEnd(ctx, info, &model.RequestState{Category: model.CategoryMath, Response: "4"})
	h.OnError(ctx, info, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"node":"math_handler"`)
	assert.Contains(t, out, `"message":"Node start"`)
	assert.Contains(t, out, `"category":"math"`)
	assert.Contains(t, out, `"message":"Node error"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestElapsedWithoutStart(t *testing.T) {
	assert.Zero(t, elapsed(context.Background()))
	assert.Empty(t, nodeName(nil))
}

func TestNewAllCallbacks(t *testing.T) {
	require.NotNil(t, NewAllCallbacks())
}

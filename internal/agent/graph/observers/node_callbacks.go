package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

type nodeStartKey struct{}

// newNodeHandler logs the lifecycle of every lambda node with its elapsed time.
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, input einocb.CallbackInput) context.Context {
			logx.Ctx(ctx).Debug().Str("node", nodeName(info)).Msg("Node start")
			return context.WithValue(ctx, nodeStartKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, output einocb.CallbackOutput) context.Context {
			evt := logx.Ctx(ctx).Debug().Str("node", nodeName(info)).Dur("elapsed", elapsed(ctx))
			if s, ok := output.(*model.RequestState); ok && s != nil {
				evt = evt.Str("category", s.Category.String()).Int("response_len", len(s.Response))
			}
			evt.Msg("Node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Ctx(ctx).Warn().Err(err).Str("node", nodeName(info)).Dur("elapsed", elapsed(ctx)).Msg("Node error")
			return ctx
		}).
		Build()
}

func nodeName(info *einocb.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Name
}

func elapsed(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(nodeStartKey{}).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}

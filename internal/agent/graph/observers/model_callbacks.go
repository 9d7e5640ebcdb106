package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/Chative-multiagent/server/pkg/logger"
)

// newModelHandler logs chat model calls made by components that report callbacks.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			evt := logx.Ctx(ctx).Debug().Str("component", nodeName(info))
			if input != nil {
				evt = evt.Int("messages", len(input.Messages)).Int("user_len", len(lastUserContent(input.Messages)))
				if input.Config != nil {
					evt = evt.Str("model", input.Config.Model).Float32("temperature", input.Config.Temperature)
				}
			}
			evt.Msg("Model start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			evt := logx.Ctx(ctx).Debug().Str("component", nodeName(info))
			if output != nil {
				if output.Message != nil {
					evt = evt.Int("reply_len", len(output.Message.Content))
				}
				if output.TokenUsage != nil {
					evt = evt.Int("prompt_tokens", output.TokenUsage.PromptTokens).
						Int("completion_tokens", output.TokenUsage.CompletionTokens)
				}
			}
			evt.Msg("Model end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Ctx(ctx).Warn().Err(err).Str("component", nodeName(info)).Msg("Model error")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := msgs[i]; m != nil && m.Role == schema.User {
			return m.Content
		}
	}
	return ""
}

package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/Chative-multiagent/server/internal/agent/metrics"
	"github.com/Chative-multiagent/server/internal/agent/model"
	errx "github.com/Chative-multiagent/server/internal/core/error"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

var tracer = otel.Tracer("multiagent.completion")

// Options configure a ChatModelClient.
type Options struct {
	// Timeout bounds each call; zero disables the deadline.
	Timeout time.Duration
	// RateLimit caps calls per second across all goroutines; zero disables it.
	RateLimit float64
	Metrics   *metrics.Metrics
}

// ChatModelClient adapts an eino chat model to Client.
type ChatModelClient struct {
	chatModel einomodel.BaseChatModel
	opts      Options
	limiter   *rate.Limiter
}

// NewChatModelClient wraps chatModel. The chat model must accept per-call
// model, temperature and max-token options.
func NewChatModelClient(chatModel einomodel.BaseChatModel, optFns ...func(o *Options)) (*ChatModelClient, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	opts := Options{Timeout: 60 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &ChatModelClient{chatModel: chatModel, opts: opts}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// Complete implements Client.
func (c *ChatModelClient) Complete(ctx context.Context, req Request) string {
	ctx, span := tracer.Start(ctx, "completion.Complete", trace.WithAttributes(
		attribute.String("completion.model", req.Model),
		attribute.Float64("completion.temperature", float64(req.Temperature)),
	))
	defer span.End()

	start := time.Now()
	out, err := c.generate(ctx, req)
	elapsed := time.Since(start)
	c.opts.Metrics.ObserveCompletion(req.Model, err != nil, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logx.Ctx(ctx).Warn().
			Err(err).
			Str("model", req.Model).
			Dur("elapsed", elapsed).
			Msg("completion call failed")
		return Failure(err)
	}

	c.account(ctx, req.Model, out)
	span.SetStatus(codes.Ok, "")
	return out.Content
}

func (c *ChatModelClient) generate(ctx context.Context, req Request) (out *schema.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errx.WrapCompletion(fmt.Errorf("chat model panic: %v", r))
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errx.WrapCompletion(fmt.Errorf("rate limit wait: %w", err))
		}
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	messages := []*schema.Message{
		schema.SystemMessage(req.System),
		schema.UserMessage(req.User),
	}
	callOpts := []einomodel.Option{einomodel.WithTemperature(req.Temperature)}
	if req.Model != "" {
		callOpts = append(callOpts, einomodel.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, einomodel.WithMaxTokens(req.MaxTokens))
	}

	out, err = c.chatModel.Generate(ctx, messages, callOpts...)
	if err != nil {
		return nil, errx.WrapCompletion(err)
	}
	if out == nil {
		return nil, errx.WrapCompletion(errors.New("empty completion"))
	}
	return out, nil
}

// account logs usage and cost the way the response graph always did, and
// reports it to the invocation tracker and metrics.
func (c *ChatModelClient) account(ctx context.Context, modelName string, out *schema.Message) {
	var usage *schema.TokenUsage
	if out.ResponseMeta != nil {
		usage = out.ResponseMeta.Usage
	}
	_, _, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	model.UsageTrackerFrom(ctx).Add(usage, totalC)

	if usage == nil {
		return
	}
	c.opts.Metrics.ObserveUsage(modelName, usage.PromptTokens, usage.CompletionTokens, totalC)
	logx.Ctx(ctx).Debug().
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

var _ Client = (*ChatModelClient)(nil)

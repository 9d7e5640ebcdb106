package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Chative-multiagent/server/internal/agent/completion"
	"github.com/Chative-multiagent/server/internal/agent/graph/nodes"
	"github.com/Chative-multiagent/server/internal/agent/graph/observers"
	"github.com/Chative-multiagent/server/internal/agent/graph/prompts"
	"github.com/Chative-multiagent/server/internal/agent/metrics"
	"github.com/Chative-multiagent/server/internal/agent/model"
	errx "github.com/Chative-multiagent/server/internal/core/error"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

var tracer = otel.Tracer("multiagent.engine")

// DefaultBatchConcurrency bounds RunBatch when the caller passes no limit.
const DefaultBatchConcurrency = 4

// Config holds everything needed to build an Engine.
type Config struct {
	Client completion.Client
	// Profiles defaults to the embedded profile table.
	Profiles        *prompts.Profiles
	ClassifierModel model.ClassifierModelConfig
	ResponseModel   model.ResponseModelConfig
	Metrics         *metrics.Metrics
	// Handlers replaces the handler table built from Profiles.
	Handlers nodes.Handlers
}

// Engine runs queries through the compiled graph. It is immutable after
// BuildEngine and safe for concurrent use.
type Engine struct {
	runnable  compose.Runnable[*model.RequestState, *model.RequestState]
	metrics   *metrics.Metrics
	validate  *validator.Validate
	callbacks einocb.Handler
}

// BuildEngine builds the handler table and compiles the graph once.
func BuildEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("completion client is nil")
	}

	profiles := cfg.Profiles
	if profiles == nil {
		var err error
		if profiles, err = prompts.LoadProfiles(); err != nil {
			return nil, err
		}
	} else if err := profiles.Validate(); err != nil {
		return nil, err
	}

	handlers := cfg.Handlers
	if handlers == nil {
		var err error
		handlers, err = nodes.NewHandlers(nodes.CallConfig{
			Client:    cfg.Client,
			Model:     cfg.ResponseModel.Model,
			MaxTokens: cfg.ResponseModel.MaxTokens,
		}, profiles)
		if err != nil {
			return nil, fmt.Errorf("error building handlers: %w", err)
		}
	}

	classifier := nodes.NewClassifier(nodes.CallConfig{
		Client:    cfg.Client,
		Model:     cfg.ClassifierModel.Model,
		MaxTokens: cfg.ClassifierModel.MaxTokens,
	}, profiles.Classifier)

	runnable, err := BuildGraph(ctx, &GraphConfig{Classifier: classifier, Handlers: handlers})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Engine built successfully")
	return &Engine{
		runnable:  runnable,
		metrics:   cfg.Metrics,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		callbacks: observers.NewAllCallbacks(),
	}, nil
}

// Run executes one invocation. It never panics and never returns an error:
// hard failures come back as a Result with Success=false and an apology.
func (e *Engine) Run(ctx context.Context, in model.QueryInput) (res *model.Result) {
	invocationID := uuid.NewString()
	ctx = logx.WithInvocation(ctx, invocationID)
	tracker := &model.UsageTracker{}
	ctx = model.WithUsageTracker(ctx, tracker)

	ctx, span := tracer.Start(ctx, "engine.Run")
	defer span.End()

	start := time.Now()
	state := model.NewRequestState(in)

	defer func() {
		if r := recover(); r != nil {
			logx.Ctx(ctx).Error().Interface("panic", r).Msg("Invocation panicked")
			e.fail(ctx, state, fmt.Errorf("%v", r))
		}
		res = state.Package(invocationID, tracker.Snapshot())
		e.observe(ctx, span, res, time.Since(start))
	}()

	if err := e.validateInput(in); err != nil {
		e.fail(ctx, state, err)
		return
	}

	logx.Ctx(ctx).Debug().Int("query_len", len(in.Query)).Int("history_len", len(in.History)).Msg("Invocation started")
	if _, err := e.runnable.Invoke(ctx, state, compose.WithCallbacks(e.callbacks)); err != nil {
		e.fail(ctx, state, err)
	}
	return
}

// RunBatch runs independent invocations concurrently, at most concurrency at a
// time. Results keep the order of inputs.
func (e *Engine) RunBatch(ctx context.Context, inputs []model.QueryInput, concurrency int) []*model.Result {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	results := make([]*model.Result, len(inputs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = e.Run(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// fail records a hard failure and finalizes the state directly. Handler
// output written before the fault is dropped; the category is kept.
func (e *Engine) fail(ctx context.Context, s *model.RequestState, err error) {
	s.Error = nodes.FaultMessage(err)
	s.Plan = nil
	s.ResearchContext = ""
	nodes.Finalize(s)
	logx.Ctx(ctx).Error().Err(err).Str("category", s.Category.String()).Msg("Invocation failed")
}

func (e *Engine) validateInput(in model.QueryInput) error {
	if strings.TrimSpace(in.Query) == "" {
		return errx.Invalid(errors.New("query is required"))
	}
	err := e.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errx.Invalid(err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}
	return errx.Invalid(errors.New(strings.Join(msgs, "; ")))
}

func (e *Engine) observe(ctx context.Context, span trace.Span, res *model.Result, elapsed time.Duration) {
	e.metrics.ObserveInvocation(res.Category.String(), res.Success, elapsed)

	span.SetAttributes(
		attribute.String("invocation.id", res.InvocationID),
		attribute.String("invocation.category", res.Category.String()),
		attribute.Bool("invocation.success", res.Success),
		attribute.Int("invocation.completion_calls", res.Usage.Calls),
	)
	if !res.Success {
		span.SetStatus(codes.Error, res.Error)
	}

	logx.Ctx(ctx).Info().
		Str("category", res.Category.String()).
		Bool("success", res.Success).
		Int("completion_calls", res.Usage.Calls).
		Float64("cost_usd", res.Usage.TotalCostUSD).
		Dur("elapsed", elapsed).
		Msg("Invocation finished")
}

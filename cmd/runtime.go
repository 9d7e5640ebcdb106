package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Chative-multiagent/server/internal/agent/completion"
	"github.com/Chative-multiagent/server/internal/agent/graph"
	"github.com/Chative-multiagent/server/internal/agent/graph/prompts"
	"github.com/Chative-multiagent/server/internal/agent/metrics"
	"github.com/Chative-multiagent/server/internal/agent/model"
	"github.com/Chative-multiagent/server/internal/agent/providers"
	"github.com/Chative-multiagent/server/internal/agent/session"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

// newCompletionClient builds the configured provider behind a ChatModelClient.
func newCompletionClient(ctx context.Context, cfg *AppConfig, m *metrics.Metrics) (completion.Client, error) {
	provider, err := cfg.Completion.ParseProvider()
	if err != nil {
		return nil, err
	}

	chatModel, err := providers.NewChatModel(ctx, providers.Config{
		Provider:         provider,
		APIKey:           cfg.Completion.APIKey,
		BaseURL:          cfg.Completion.BaseURL,
		DefaultModel:     model.ResolveModel(provider, cfg.Response.Model),
		DefaultMaxTokens: cfg.Response.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return completion.NewChatModelClient(chatModel, func(o *completion.Options) {
		o.Timeout = cfg.Completion.Timeout
		o.RateLimit = cfg.Completion.RateLimit
		o.Metrics = m
	})
}

// runtime is the engine and its collaborators for one command.
type runtime struct {
	engine   *graph.Engine
	sessions *session.Manager
	rdb      *redis.Client
}

func (rt *runtime) Close() {
	if rt.rdb != nil {
		_ = rt.rdb.Close()
	}
}

// buildRuntime wires the engine. Sessions are only built when withSessions is set.
func (a *app) buildRuntime(ctx context.Context, withSessions bool) (*runtime, error) {
	client, err := a.newClient(ctx, a.cfg, a.metrics)
	if err != nil {
		return nil, fmt.Errorf("completion client: %w", err)
	}

	profiles, err := prompts.LoadProfiles()
	if err != nil {
		return nil, err
	}

	provider, _ := a.cfg.Completion.ParseProvider()
	engine, err := graph.BuildEngine(ctx, graph.Config{
		Client:   client,
		Profiles: profiles,
		ClassifierModel: model.ClassifierModelConfig{
			Model:     model.ResolveModel(provider, a.cfg.Classifier.Model),
			MaxTokens: a.cfg.Classifier.MaxTokens,
		},
		ResponseModel: model.ResponseModelConfig{
			Model:     model.ResolveModel(provider, a.cfg.Response.Model),
			MaxTokens: a.cfg.Response.MaxTokens,
		},
		Metrics: a.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	rt := &runtime{engine: engine}
	if !withSessions {
		return rt, nil
	}

	var repo model.SessionRepository
	if a.cfg.Redis.Enabled() {
		rdb, err := a.cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rt.rdb = rdb
		repo = session.NewRedisRepository(rdb, a.cfg.Session.TTL)
		logx.Debug().Msg("Sessions stored in Redis")
	} else {
		repo = session.NewMemoryRepository()
		logx.Debug().Msg("REDIS_URL not set, sessions kept in memory")
	}

	rt.sessions, err = session.NewManager(repo, client, profiles, a.cfg.Session, model.ResolveModel(provider, a.cfg.Classifier.Model))
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Package providers builds eino chat models for the supported completion
// backends. Every model honours the per-call model, temperature and max-token
// options so one instance can serve the classifier and all handlers.
package providers

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

var errStreamUnsupported = errors.New("streaming is not supported")

// Config selects and parameterises a provider.
type Config struct {
	Provider model.Provider
	APIKey   string
	BaseURL  string
	// DefaultModel is used when a call carries no model option.
	DefaultModel string
	// DefaultMaxTokens is used when a call carries no max-token option.
	DefaultMaxTokens int
}

// NewChatModel creates the chat model for cfg.Provider.
func NewChatModel(ctx context.Context, cfg Config) (einomodel.BaseChatModel, error) {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = model.ResolveModel(cfg.Provider, "")
	}
	if cfg.DefaultMaxTokens <= 0 {
		cfg.DefaultMaxTokens = 1024
	}

	var (
		cm  einomodel.BaseChatModel
		err error
	)
	switch cfg.Provider {
	case model.ProviderGemini:
		cm, err = newGeminiChatModel(ctx, cfg)
	case model.ProviderOpenAI:
		cm, err = newOpenAIChatModel(ctx, cfg)
	case model.ProviderAnthropic:
		cm = newAnthropicChatModel(cfg)
	default:
		return nil, fmt.Errorf("unsupported completion provider %q", cfg.Provider)
	}
	if err != nil {
		logx.Error().Err(err).Str("provider", string(cfg.Provider)).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating %s chat model: %w", cfg.Provider, err)
	}

	logx.Debug().
		Str("provider", string(cfg.Provider)).
		Str("default_model", cfg.DefaultModel).
		Msg("Chat model ready")
	return cm, nil
}

// callOptions merges per-call options over the provider defaults.
func callOptions(cfg Config, opts []einomodel.Option) (modelName string, temperature *float32, maxTokens int) {
	o := einomodel.GetCommonOptions(&einomodel.Options{
		Model:     &cfg.DefaultModel,
		MaxTokens: &cfg.DefaultMaxTokens,
	}, opts...)
	modelName = cfg.DefaultModel
	if o.Model != nil && *o.Model != "" {
		modelName = *o.Model
	}
	maxTokens = cfg.DefaultMaxTokens
	if o.MaxTokens != nil && *o.MaxTokens > 0 {
		maxTokens = *o.MaxTokens
	}
	return modelName, o.Temperature, maxTokens
}

// splitSystem separates system instructions from the conversation turns.
func splitSystem(in []*schema.Message) (system string, turns []*schema.Message) {
	for _, m := range in {
		if m == nil {
			continue
		}
		if m.Role == schema.System {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

func withUsage(msg *schema.Message, finishReason string, prompt, completion int64) *schema.Message {
	msg.ResponseMeta = &schema.ResponseMeta{
		FinishReason: finishReason,
		Usage: &schema.TokenUsage{
			PromptTokens:     int(prompt),
			CompletionTokens: int(completion),
			TotalTokens:      int(prompt + completion),
		},
	}
	return msg
}

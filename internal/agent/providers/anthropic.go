package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// anthropicChatModel drives the Anthropic Messages API.
type anthropicChatModel struct {
	client anthropic.Client
	cfg    Config
}

func newAnthropicChatModel(cfg Config) *anthropicChatModel {
	// failed calls are reported once, never retried
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicChatModel{client: anthropic.NewClient(opts...), cfg: cfg}
}

func (m *anthropicChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	modelName, temperature, maxTokens := callOptions(m.cfg, opts)
	system, turns := splitSystem(in)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: int64(maxTokens),
		Messages:  buildAnthropicMessages(turns),
	}
	if temperature != nil {
		params.Temperature = anthropic.Float(float64(*temperature))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	return withUsage(
		schema.AssistantMessage(text.String(), nil),
		string(resp.StopReason),
		resp.Usage.InputTokens,
		resp.Usage.OutputTokens,
	), nil
}

func (m *anthropicChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errStreamUnsupported
}

func buildAnthropicMessages(turns []*schema.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == schema.Assistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}
	return messages
}

var _ einomodel.BaseChatModel = (*anthropicChatModel)(nil)

package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
)

func newOpenAIChatModel(ctx context.Context, cfg Config) (einomodel.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	// temperature comes with each call
	maxTokens := cfg.DefaultMaxTokens
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.DefaultModel,
		MaxTokens: &maxTokens,
	})
}

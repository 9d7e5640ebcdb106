package model

import (
	"fmt"
	"strings"
	"time"
)

// Provider names a completion backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

var defaultModels = map[Provider]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

// ================ Config ================
type CompletionConfig struct {
	Provider  string        `envconfig:"COMPLETION_PROVIDER" default:"gemini"`
	APIKey    string        `envconfig:"COMPLETION_API_KEY"`
	BaseURL   string        `envconfig:"COMPLETION_BASE_URL"`
	Timeout   time.Duration `envconfig:"COMPLETION_TIMEOUT" default:"60s"`
	RateLimit float64       `envconfig:"COMPLETION_RATE_LIMIT" default:"0"`
}

// ParseProvider validates the configured provider name.
func (c CompletionConfig) ParseProvider() (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(c.Provider)))
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("unsupported completion provider %q", c.Provider)
	}
	return p, nil
}

type ClassifierModelConfig struct {
	Model     string `envconfig:"CLASSIFIER_MODEL"`
	MaxTokens int    `envconfig:"CLASSIFIER_MAX_TOKENS" default:"16"`
}

type ResponseModelConfig struct {
	Model     string `envconfig:"RESPONSE_MODEL"`
	MaxTokens int    `envconfig:"RESPONSE_MAX_TOKENS" default:"2048"`
}

type SessionConfig struct {
	TTL      time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	MaxTurns int           `envconfig:"SESSION_HISTORY_MAX_TURNS" default:"10"`
}

// ResolveModel returns configured when set, otherwise the provider default.
func ResolveModel(p Provider, configured string) string {
	if m := strings.TrimSpace(configured); m != "" {
		return m
	}
	return defaultModels[p]
}

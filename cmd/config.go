package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-multiagent/server/internal/agent/model"
	"github.com/Chative-multiagent/server/internal/core"
	logx "github.com/Chative-multiagent/server/pkg/logger"
	pkgredis "github.com/Chative-multiagent/server/pkg/redis"
)

// AppConfig defines every configurable parameter, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// Completion provider
	Completion model.CompletionConfig

	// Engine models
	Classifier model.ClassifierModelConfig
	Response   model.ResponseModelConfig

	Session model.SessionConfig
}

// Env returns the parsed deployment environment.
func (c *AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// loadConfig loads envFile when present and binds the environment.
func loadConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			if envFile != defaultEnvFile {
				logx.Warn().Str("file", envFile).Msg("Env file not found")
			}
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envOr returns the variable or fallback, for flags whose defaults come from the environment.
func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-multiagent/server/internal/agent/completion"
	"github.com/Chative-multiagent/server/internal/agent/completion/completiontest"
	"github.com/Chative-multiagent/server/internal/agent/metrics"
	"github.com/Chative-multiagent/server/internal/agent/model"
	"github.com/Chative-multiagent/server/internal/core"
)

func fakeFactory(fake *completiontest.Fake) clientFactory {
	return func(context.Context, *AppConfig, *metrics.Metrics) (completion.Client, error) {
		return fake, nil
	}
}

func routingFake() *completiontest.Fake {
	return completiontest.New(func(req completion.Request) string {
		switch {
		case strings.Contains(req.System, "query classifier"):
			if strings.Contains(req.User, "12 * 8") {
				return "math"
			}
			return "conversation"
		case strings.Contains(req.System, "title"):
			return "Friendly Greeting"
		}
		return "Hello there!"
	})
}

func runCommand(t *testing.T, fake *completiontest.Fake, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REDIS_URL", "")
	t.Setenv("COMPLETION_PROVIDER", "gemini")

	var out bytes.Buffer
	a := &app{out: &out, in: strings.NewReader(stdin), newClient: fakeFactory(fake)}
	root := newRootCommand(a)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskJSON(t *testing.T) {
	out, err := runCommand(t, routingFake(), "", "ask", "--json", "What is 12 * 8?", "hi")
	require.NoError(t, err)

	var results []model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, model.CategoryMath, results[0].Category)
	assert.Equal(t, model.CategoryConversation, results[1].Category)
	for _, res := range results {
		assert.True(t, res.Success)
		assert.Equal(t, "Hello there!", res.Response)
	}
}

func TestAskPlain(t *testing.T) {
	out, err := runCommand(t, routingFake(), "", "ask", "--plain", "hi")
	require.NoError(t, err)
	assert.Contains(t, out, "conversation")
	assert.Contains(t, out, "Hello there!")
}

func TestAskRequiresQuestion(t *testing.T) {
	_, err := runCommand(t, routingFake(), "", "ask")
	assert.Error(t, err)
}

func TestAskClientFailure(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	var out bytes.Buffer
	a := &app{out: &out, in: strings.NewReader(""), newClient: func(context.Context, *AppConfig, *metrics.Metrics) (completion.Client, error) {
		return nil, errors.New("missing api key")
	}}
	root := newRootCommand(a)
	root.SetArgs([]string{"--env-file", "", "ask", "hi"})
	root.SetErr(&out)
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing api key")
}

func TestChatSession(t *testing.T) {
	fake := routingFake()
	out, err := runCommand(t, fake, "hi\n\n/title\nhow are you?\n/clear\n/title\n/exit\n", "chat", "--plain", "--session", "s-1")
	require.NoError(t, err)

	assert.Contains(t, out, "session s-1")
	assert.Contains(t, out, "Hello there!")
	assert.Contains(t, out, "Friendly Greeting")
	assert.Contains(t, out, "session cleared")
	assert.Contains(t, out, "New Chat")

	var sawSecondTurn bool
	for _, call := range fake.Calls() {
		if strings.Contains(call.System, "title") {
			assert.InDelta(t, 0.3, call.Temperature, 1e-6)
			assert.Equal(t, 20, call.MaxTokens)
		}
		if call.User == "how are you?" {
			sawSecondTurn = true
		}
	}
	assert.True(t, sawSecondTurn)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(strings.Join([]string{
		"COMPLETION_PROVIDER=openai",
		"COMPLETION_TIMEOUT=15s",
		"RESPONSE_MAX_TOKENS=512",
		"SESSION_HISTORY_MAX_TURNS=4",
		"ENVIRONMENT=prod",
	}, "\n")), 0o600))

	for _, key := range []string{"COMPLETION_PROVIDER", "COMPLETION_TIMEOUT", "RESPONSE_MAX_TOKENS", "SESSION_HISTORY_MAX_TURNS", "ENVIRONMENT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := loadConfig(envFile)
	require.NoError(t, err)

	provider, err := cfg.Completion.ParseProvider()
	require.NoError(t, err)
	assert.Equal(t, model.ProviderOpenAI, provider)
	assert.Equal(t, 15*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, 512, cfg.Response.MaxTokens)
	assert.Equal(t, 16, cfg.Classifier.MaxTokens)
	assert.Equal(t, 4, cfg.Session.MaxTurns)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, core.Production, cfg.Env())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestNewCompletionClientRejectsUnknownProvider(t *testing.T) {
	_, err := newCompletionClient(context.Background(), &AppConfig{
		Completion: model.CompletionConfig{Provider: "mistral"},
	}, nil)
	assert.ErrorContains(t, err, "unsupported completion provider")
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-multiagent/server/internal/agent/completion"
	"github.com/Chative-multiagent/server/internal/agent/completion/completiontest"
	"github.com/Chative-multiagent/server/internal/agent/graph/prompts"
	"github.com/Chative-multiagent/server/internal/agent/model"
)

func newManager(t *testing.T, repo model.SessionRepository, client completion.Client, maxTurns int) *Manager {
	t.Helper()
	profiles, err := prompts.LoadProfiles()
	require.NoError(t, err)
	m, err := NewManager(repo, client, profiles, model.SessionConfig{MaxTurns: maxTurns}, "title-model")
	require.NoError(t, err)
	return m
}

func TestManagerRecordTitlesFirstTurnOnly(t *testing.T) {
	ctx := context.Background()
	fake := completiontest.New(func(completion.Request) string { return ` "Tokyo Trip Plan" ` })
	repo := NewMemoryRepository()
	m := newManager(t, repo, fake, 10)

	title, err := m.Record(ctx, "s1", "Plan a 3-day trip to Tokyo", &model.Result{
		Response:        "Day 1...",
		Category:        model.CategoryPlanning,
		SelectedHandler: model.CategoryPlanning,
		Plan:            []string{"1. Fly", "2. Explore"},
		Success:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Trip Plan", title)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.InDelta(t, 0.3, calls[0].Temperature, 1e-6)
	assert.Equal(t, 20, calls[0].MaxTokens)
	assert.Equal(t, "title-model", calls[0].Model)
	assert.Equal(t, "User asked: Plan a 3-day trip to Tokyo\n\nAssistant replied: Day 1...", calls[0].User)

	title, err = m.Record(ctx, "s1", "thanks", &model.Result{Response: "You're welcome!", Category: model.CategoryConversation})
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Len(t, fake.Calls(), 1)

	stored, err := m.Title(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Trip Plan", stored)

	history, err := repo.LoadHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 4)
	assert.Equal(t, schema.User, history.Messages[0].Role)
	assert.Equal(t, schema.Assistant, history.Messages[1].Role)
	assert.Equal(t, model.CategoryPlanning, history.Messages[1].Category)
	assert.Equal(t, []string{"1. Fly", "2. Explore"}, history.Messages[1].Plan)
	assert.False(t, history.Messages[1].CreatedAt.IsZero())
}

func TestManagerHistoryKeepsLastTurns(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, NewMemoryRepository(), completiontest.New(nil), 2)

	for _, q := range []string{"one", "two", "three"} {
		_, err := m.Record(ctx, "s1", q, &model.Result{Response: "re " + q})
		require.NoError(t, err)
	}

	history, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.Message{
		{Role: schema.User, Content: "two"},
		{Role: schema.Assistant, Content: "re two"},
		{Role: schema.User, Content: "three"},
		{Role: schema.Assistant, Content: "re three"},
	}, history)

	empty, err := m.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestManagerTitleDefaultsAndClear(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, NewMemoryRepository(), completiontest.New(nil), 10)

	title, err := m.Title(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, title)

	_, err = m.Record(ctx, "s1", "hi", &model.Result{Response: "hello"})
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx, "s1"))

	title, err = m.Title(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, title)
	history, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGenerateTitle(t *testing.T) {
	long := strings.Repeat("word ", 20)

	tests := []struct {
		name  string
		reply string
		user  string
		want  string
	}{
		{name: "clean", reply: "Python List Sorting", user: "sort a list", want: "Python List Sorting"},
		{name: "quotes stripped", reply: `'Morning Greeting'`, user: "hi", want: "Morning Greeting"},
		{name: "too long", reply: long, user: "hi", want: string([]rune(strings.TrimSpace(long))[:47]) + "..."},
		{name: "failure falls back", reply: completiontest.FailureText, user: "How do I sort a list in Python?", want: "How do I sort a list in Python?"},
		{name: "empty falls back", reply: "  ", user: "hi", want: "hi"},
		{
			name:  "long fallback",
			reply: completiontest.FailureText,
			user:  strings.Repeat("a", 60),
			want:  strings.Repeat("a", 50) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, NewMemoryRepository(), completiontest.New(func(completion.Request) string { return tt.reply }), 10)
			assert.Equal(t, tt.want, m.GenerateTitle(context.Background(), tt.user, "reply"))
		})
	}
}

func TestFallbackTitle(t *testing.T) {
	assert.Equal(t, DefaultTitle, FallbackTitle(""))
	assert.Equal(t, DefaultTitle, FallbackTitle("   "))
	assert.Equal(t, "short", FallbackTitle(" short "))
}

func TestNewManagerValidation(t *testing.T) {
	profiles, err := prompts.LoadProfiles()
	require.NoError(t, err)

	_, err = NewManager(nil, completiontest.New(nil), profiles, model.SessionConfig{}, "")
	assert.Error(t, err)
	_, err = NewManager(NewMemoryRepository(), nil, profiles, model.SessionConfig{}, "")
	assert.Error(t, err)
	_, err = NewManager(NewMemoryRepository(), completiontest.New(nil), nil, model.SessionConfig{}, "")
	assert.Error(t, err)
}

func TestManagerRecordConcurrentFirstTurnsTitleOnce(t *testing.T) {
	ctx := context.Background()
	fake := completiontest.New(func(completion.Request) string { return "Greetings" })
	repo := NewMemoryRepository()
	m := newManager(t, repo, fake, 10)

	const writers = 8
	titles := make([]string, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			title, err := m.Record(ctx, "s1", fmt.Sprintf("hi %d", i), &model.Result{Response: "hello"})
			assert.NoError(t, err)
			titles[i] = title
		}()
	}
	wg.Wait()

	var titled int
	for _, title := range titles {
		if title != "" {
			titled++
		}
	}
	assert.Equal(t, 1, titled)
	assert.Len(t, fake.Calls(), 1)

	history, err := repo.LoadHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 2*writers)
	for i := 0; i < len(history.Messages); i += 2 {
		assert.Equal(t, schema.User, history.Messages[i].Role)
		assert.Equal(t, schema.Assistant, history.Messages[i+1].Role, "turns are never interleaved")
	}
}

type failingRepository struct {
	*MemoryRepository
}

func (failingRepository) AddMessages(context.Context, string, ...*model.SessionMessage) (int, error) {
	return 0, errors.New("redis operation failed: connection reset")
}

func TestManagerRecordFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	fake := completiontest.New(nil)
	repo := failingRepository{NewMemoryRepository()}
	m := newManager(t, repo, fake, 10)

	title, err := m.Record(ctx, "s1", "hi", &model.Result{Response: "hello"})
	require.Error(t, err)
	assert.Empty(t, title)
	assert.Empty(t, fake.Calls())

	history, err := repo.LoadHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}

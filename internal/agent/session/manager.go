// Package session persists chat sessions on the consumer side of the engine:
// turns with their routing metadata, history for the next query, and a
// generated title.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-multiagent/server/internal/agent/completion"
	"github.com/Chative-multiagent/server/internal/agent/graph/prompts"
	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

const (
	DefaultTitle = "New Chat"

	maxTitleRunes     = 50
	titleMaxTokens    = 20
	fallbackTitleCut  = 50
	truncatedTitleCut = 47
)

type Manager struct {
	repo         model.SessionRepository
	client       completion.Client
	titleProfile prompts.Profile
	titleModel   string
	maxTurns     int
}

// NewManager wires a repository and the completion client used for titles.
func NewManager(repo model.SessionRepository, client completion.Client, profiles *prompts.Profiles, cfg model.SessionConfig, titleModel string) (*Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("completion client is nil")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profiles are nil")
	}
	return &Manager{
		repo:         repo,
		client:       client,
		titleProfile: profiles.Title,
		titleModel:   titleModel,
		maxTurns:     cfg.MaxTurns,
	}, nil
}

// History returns the most recent turns of the session as engine history.
func (m *Manager) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	history, err := m.repo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	recent := trimTail(history.Messages, m.maxTurns*2)
	out := make([]model.Message, 0, len(recent))
	for _, msg := range recent {
		if msg == nil || msg.Content == "" {
			continue
		}
		out = append(out, model.Message{Role: msg.Role, Content: msg.Content})
	}
	return out, nil
}

// Record stores the user query and the engine result as one turn in a single
// write. On the first turn of a session it also generates and stores a title,
// which is returned; later turns return "".
func (m *Manager) Record(ctx context.Context, sessionID, query string, res *model.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result is nil")
	}

	now := time.Now().UTC()
	total, err := m.repo.AddMessages(ctx, sessionID,
		&model.SessionMessage{
			Role:      schema.User,
			Content:   query,
			CreatedAt: now,
		},
		&model.SessionMessage{
			Role:            schema.Assistant,
			Content:         res.Response,
			Category:        res.Category,
			SelectedHandler: res.SelectedHandler,
			Plan:            res.Plan,
			CreatedAt:       now,
		},
	)
	if err != nil {
		return "", err
	}

	// only the writer of the first turn sees exactly two messages
	if total != 2 {
		return "", nil
	}

	title := m.GenerateTitle(ctx, query, res.Response)
	if err := m.repo.SetTitle(ctx, sessionID, title); err != nil {
		return "", err
	}
	logx.Ctx(ctx).Debug().Str("session_id", sessionID).Str("title", title).Msg("Session titled")
	return title, nil
}

// Title returns the stored title, or DefaultTitle.
func (m *Manager) Title(ctx context.Context, sessionID string) (string, error) {
	title, err := m.repo.GetTitle(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if title == "" {
		return DefaultTitle, nil
	}
	return title, nil
}

// Clear drops every message and the title of the session.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.repo.ClearHistory(ctx, sessionID)
}

// GenerateTitle asks the completion service for a short title and falls back
// to the head of the user message when the call fails.
func (m *Manager) GenerateTitle(ctx context.Context, userMessage, reply string) string {
	request, err := prompts.RenderTitleRequest(ctx, userMessage, reply)
	if err != nil {
		logx.Ctx(ctx).Warn().Err(err).Msg("Title request render failed")
		return FallbackTitle(userMessage)
	}

	text := m.client.Complete(ctx, completion.Request{
		System:      m.titleProfile.System,
		User:        request,
		Model:       m.titleModel,
		Temperature: m.titleProfile.Temp(),
		MaxTokens:   titleMaxTokens,
	})
	if completion.IsFailure(text) {
		logx.Ctx(ctx).Warn().Str("reason", text).Msg("Title generation failed")
		return FallbackTitle(userMessage)
	}

	title := strings.Trim(strings.TrimSpace(text), `"'`)
	if title == "" {
		return FallbackTitle(userMessage)
	}
	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:truncatedTitleCut]) + "..."
	}
	return title
}

// FallbackTitle derives a title from the first 50 characters of the message.
func FallbackTitle(userMessage string) string {
	r := []rune(userMessage)
	if len(r) <= fallbackTitleCut {
		if title := strings.TrimSpace(userMessage); title != "" {
			return title
		}
		return DefaultTitle
	}
	title := strings.TrimSpace(string(r[:fallbackTitleCut]))
	if title == "" {
		return DefaultTitle
	}
	return title + "..."
}

func trimTail(messages []*model.SessionMessage, max int) []*model.SessionMessage {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}

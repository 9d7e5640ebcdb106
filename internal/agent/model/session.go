package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// SessionMessage is one persisted turn, including the routing metadata the
// engine produced for assistant turns.
type SessionMessage struct {
	Role            schema.RoleType `json:"role"`
	Content         string          `json:"content"`
	Category        Category        `json:"category,omitempty"`
	SelectedHandler Category        `json:"selected_handler,omitempty"`
	Plan            []string        `json:"plan,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SessionHistory represents loaded session data with metadata.
type SessionHistory struct {
	SessionID string
	Messages  []*SessionMessage
}

type SessionRepository interface {
	// AddMessage appends a message to the session
	AddMessage(ctx context.Context, sessionID string, message *SessionMessage) error

	// AddMessages appends all messages in one atomic write and returns the
	// session length after the append
	AddMessages(ctx context.Context, sessionID string, messages ...*SessionMessage) (int, error)

	// LoadHistory retrieves every message of the session, oldest first
	LoadHistory(ctx context.Context, sessionID string) (*SessionHistory, error)

	// ClearHistory removes the session messages and title
	ClearHistory(ctx context.Context, sessionID string) error

	// GetMessageCount returns the number of messages in the session
	GetMessageCount(ctx context.Context, sessionID string) (int, error)

	// SetTitle stores the display title of the session
	SetTitle(ctx context.Context, sessionID string, title string) error

	// GetTitle returns the stored title, or "" when none was set
	GetTitle(ctx context.Context, sessionID string) (string, error)
}

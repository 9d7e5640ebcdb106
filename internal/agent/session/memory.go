package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Chative-multiagent/server/internal/agent/model"
)

// MemoryRepository keeps sessions in process memory. Sessions never expire.
type MemoryRepository struct {
	mu       sync.RWMutex
	messages map[string][]model.SessionMessage
	titles   map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		messages: map[string][]model.SessionMessage{},
		titles:   map[string]string{},
	}
}

func (r *MemoryRepository) AddMessage(ctx context.Context, sessionID string, message *model.SessionMessage) error {
	_, err := r.AddMessages(ctx, sessionID, message)
	return err
}

func (r *MemoryRepository) AddMessages(_ context.Context, sessionID string, messages ...*model.SessionMessage) (int, error) {
	batch := make([]model.SessionMessage, 0, len(messages))
	for _, message := range messages {
		if message == nil {
			return 0, fmt.Errorf("message is nil")
		}
		m := cloneMessage(*message)
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		batch = append(batch, m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[sessionID] = append(r.messages[sessionID], batch...)
	return len(r.messages[sessionID]), nil
}

func (r *MemoryRepository) LoadHistory(_ context.Context, sessionID string) (*model.SessionHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[sessionID]
	msgs := make([]*model.SessionMessage, 0, len(stored))
	for _, m := range stored {
		c := cloneMessage(m)
		msgs = append(msgs, &c)
	}
	return &model.SessionHistory{SessionID: sessionID, Messages: msgs}, nil
}

func (r *MemoryRepository) ClearHistory(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, sessionID)
	delete(r.titles, sessionID)
	return nil
}

func (r *MemoryRepository) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages[sessionID]), nil
}

func (r *MemoryRepository) SetTitle(_ context.Context, sessionID string, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles[sessionID] = title
	return nil
}

func (r *MemoryRepository) GetTitle(_ context.Context, sessionID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.titles[sessionID], nil
}

func cloneMessage(m model.SessionMessage) model.SessionMessage {
	if m.Plan != nil {
		m.Plan = append([]string(nil), m.Plan...)
	}
	return m
}

var _ model.SessionRepository = (*MemoryRepository)(nil)

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Chative-multiagent/server/internal/agent/model"
	errx "github.com/Chative-multiagent/server/internal/core/error"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

type RedisRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisRepository(rdb redis.Cmdable, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) messagesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

func (r *RedisRepository) titleKey(sessionID string) string {
	return fmt.Sprintf("session:%s:title", sessionID)
}

func (r *RedisRepository) AddMessage(ctx context.Context, sessionID string, message *model.SessionMessage) error {
	_, err := r.AddMessages(ctx, sessionID, message)
	return err
}

func (r *RedisRepository) AddMessages(ctx context.Context, sessionID string, messages ...*model.SessionMessage) (int, error) {
	if len(messages) == 0 {
		return r.GetMessageCount(ctx, sessionID)
	}

	values := make([]any, 0, len(messages))
	for _, message := range messages {
		if message == nil {
			return 0, fmt.Errorf("message is nil")
		}
		if message.CreatedAt.IsZero() {
			message.CreatedAt = time.Now().UTC()
		}
		b, err := json.Marshal(message)
		if err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal message")
			return 0, fmt.Errorf("marshal message: %w", err)
		}
		values = append(values, b)
	}
	key := r.messagesKey(sessionID)

	// append and extend TTL of the whole session on touch
	var push *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		push = pipe.RPush(ctx, key, values...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
			pipe.Expire(ctx, r.titleKey(sessionID), r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push messages to redis")
		return 0, errx.WrapRedis(err)
	}
	return int(push.Val()), nil
}

func (r *RedisRepository) LoadHistory(ctx context.Context, sessionID string) (*model.SessionHistory, error) {
	key := r.messagesKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.SessionHistory{SessionID: sessionID, Messages: []*model.SessionMessage{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*model.SessionMessage, 0, len(rows))
	for i, s := range rows {
		var m model.SessionMessage
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &model.SessionHistory{SessionID: sessionID, Messages: msgs}, nil
}

func (r *RedisRepository) ClearHistory(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.messagesKey(sessionID), r.titleKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) GetMessageCount(ctx context.Context, sessionID string) (int, error) {
	key := r.messagesKey(sessionID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

func (r *RedisRepository) SetTitle(ctx context.Context, sessionID string, title string) error {
	key := r.titleKey(sessionID)
	if err := r.rdb.Set(ctx, key, title, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store session title")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) GetTitle(ctx context.Context, sessionID string) (string, error) {
	key := r.titleKey(sessionID)
	title, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to read session title")
		return "", errx.WrapRedis(err)
	}
	return title, nil
}

var _ model.SessionRepository = (*RedisRepository)(nil)

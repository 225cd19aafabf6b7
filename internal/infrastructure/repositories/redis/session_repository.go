package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionRepository(client *redis.Client) ports.SessionRepository {
	return &RedisSessionRepository{
		client: client,
		prefix: "stagecast:session:",
	}
}

func (r *RedisSessionRepository) roomKey(room domain.RoomName) string {
	return r.prefix + "room:" + string(room)
}

func (r *RedisSessionRepository) idKey(id domain.SessionID) string {
	return r.prefix + "id:" + string(id)
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Sessions are addressable both by room and by vendor id.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.roomKey(session.Room), data, 0)
	pipe.Set(ctx, r.idKey(session.ID), data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set session in Redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) getByKey(ctx context.Context, key string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) GetByRoom(ctx context.Context, room domain.RoomName) (*domain.Session, error) {
	return r.getByKey(ctx, r.roomKey(room))
}

func (r *RedisSessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return r.getByKey(ctx, r.idKey(id))
}

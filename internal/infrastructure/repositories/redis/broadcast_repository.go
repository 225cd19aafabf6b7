package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisBroadcastRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisBroadcastRepository(client *redis.Client) ports.BroadcastRepository {
	return &RedisBroadcastRepository{
		client: client,
		prefix: "stagecast:broadcast:",
	}
}

func (r *RedisBroadcastRepository) sessionKey(id domain.SessionID) string {
	return r.prefix + string(id)
}

func (r *RedisBroadcastRepository) Create(ctx context.Context, record *domain.BroadcastRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast record: %w", err)
	}

	set, err := r.client.SetNX(ctx, r.sessionKey(record.SessionID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create broadcast record in Redis: %w", err)
	}
	if !set {
		return domain.ErrBroadcastExists
	}
	return nil
}

func (r *RedisBroadcastRepository) Put(ctx context.Context, record *domain.BroadcastRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast record: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(record.SessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set broadcast record in Redis: %w", err)
	}
	return nil
}

func (r *RedisBroadcastRepository) GetBySession(ctx context.Context, sessionID domain.SessionID) (*domain.BroadcastRecord, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNoActiveBroadcast
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get broadcast record from Redis: %w", err)
	}

	var record domain.BroadcastRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal broadcast record: %w", err)
	}
	return &record, nil
}

func (r *RedisBroadcastRepository) Delete(ctx context.Context, sessionID domain.SessionID) error {
	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete broadcast record from Redis: %w", err)
	}
	return nil
}

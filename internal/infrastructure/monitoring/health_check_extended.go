package monitoring

import (
	"context"
	"errors"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// AddRedisCheck adds a Redis connectivity check.
func (h *HealthChecker) AddRedisCheck(client *redis.Client, interval, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return false, err
		}
		return true, nil
	}, interval, timeout)
}

// AddSessionStoreCheck probes the session repository with a sentinel room.
// A miss is healthy; only a store-level failure is reported.
func (h *HealthChecker) AddSessionStoreCheck(repo ports.SessionRepository, interval, timeout time.Duration) {
	h.AddCheck("session_store", func(ctx context.Context) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		_, err := repo.GetByRoom(ctx, domain.RoomName("healthcheck"))
		if err != nil && !errors.Is(err, domain.ErrNoSession) {
			return false, err
		}
		return true, nil
	}, interval, timeout)
}

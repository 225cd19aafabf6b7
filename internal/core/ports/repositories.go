package ports

import (
	"context"

	"stagecast/internal/core/domain"
)

type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	GetByRoom(ctx context.Context, room domain.RoomName) (*domain.Session, error)
	GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error)
}

type BroadcastRepository interface {
	// Create stores the record only if no record exists for its session,
	// returning domain.ErrBroadcastExists otherwise. Backed by SetNX on
	// Redis, so the check holds across instances sharing a store.
	Create(ctx context.Context, record *domain.BroadcastRecord) error
	Put(ctx context.Context, record *domain.BroadcastRecord) error
	GetBySession(ctx context.Context, sessionID domain.SessionID) (*domain.BroadcastRecord, error)
	Delete(ctx context.Context, sessionID domain.SessionID) error
}

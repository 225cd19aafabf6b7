package memory

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

// MemorySessionRepository caches vendor sessions by room name for the
// lifetime of the process. There is no eviction; a restart loses the cache
// and clients must re-fetch credentials.
type MemorySessionRepository struct {
	byRoom map[domain.RoomName]*domain.Session
	byID   map[domain.SessionID]*domain.Session
	mu     sync.RWMutex
}

func NewMemorySessionRepository() ports.SessionRepository {
	return &MemorySessionRepository{
		byRoom: make(map[domain.RoomName]*domain.Session),
		byID:   make(map[domain.SessionID]*domain.Session),
	}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byRoom[session.Room] = session
	r.byID[session.ID] = session
	return nil
}

func (r *MemorySessionRepository) GetByRoom(ctx context.Context, room domain.RoomName) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.byRoom[room]
	if !exists {
		return nil, domain.ErrNoSession
	}
	return session, nil
}

func (r *MemorySessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.byID[id]
	if !exists {
		return nil, domain.ErrNoSession
	}
	return session, nil
}

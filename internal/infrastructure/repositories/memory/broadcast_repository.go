package memory

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

// MemoryBroadcastRepository holds the per-session active broadcast records.
type MemoryBroadcastRepository struct {
	records map[domain.SessionID]*domain.BroadcastRecord
	mu      sync.RWMutex
}

func NewMemoryBroadcastRepository() ports.BroadcastRepository {
	return &MemoryBroadcastRepository{
		records: make(map[domain.SessionID]*domain.BroadcastRecord),
	}
}

func (r *MemoryBroadcastRepository) Create(ctx context.Context, record *domain.BroadcastRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.SessionID]; exists {
		return domain.ErrBroadcastExists
	}
	r.records[record.SessionID] = record
	return nil
}

func (r *MemoryBroadcastRepository) Put(ctx context.Context, record *domain.BroadcastRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.SessionID] = record
	return nil
}

func (r *MemoryBroadcastRepository) GetBySession(ctx context.Context, sessionID domain.SessionID) (*domain.BroadcastRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[sessionID]
	if !exists {
		return nil, domain.ErrNoActiveBroadcast
	}
	return record, nil
}

func (r *MemoryBroadcastRepository) Delete(ctx context.Context, sessionID domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, sessionID)
	return nil
}

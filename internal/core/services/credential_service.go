package services

import (
	"context"
	"fmt"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/tracing"

	"go.uber.org/zap"
)

const defaultMediaMode = "routed"

type credentialService struct {
	platform ports.VideoPlatform
	sessions ports.SessionRepository
	metrics  ports.MetricsRecorder
	locks    *keyedMutex
	logger   *zap.SugaredLogger
}

func NewCredentialService(
	platform ports.VideoPlatform,
	sessions ports.SessionRepository,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.CredentialService {
	return &credentialService{
		platform: platform,
		sessions: sessions,
		metrics:  metrics,
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}

// GetCredentials reuses the cached session for the room, creating one on
// first use, and mints a fresh role token against the vendor.
func (s *credentialService) GetCredentials(ctx context.Context, role domain.Role, room domain.RoomName) (*domain.Credentials, error) {
	tracing.AddSpanAttributes(ctx, tracing.RoomKey.String(string(room)), tracing.RoleKey.String(string(role)))

	// Serialize per room so concurrent first requests create one session.
	unlock := s.locks.lock(string(room))
	defer unlock()

	session, err := s.sessions.GetByRoom(ctx, room)
	if err == domain.ErrNoSession {
		session, err = s.createSession(ctx, room)
	}
	if err != nil {
		return nil, err
	}

	token, err := s.platform.GenerateToken(session.ID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token for room %s: %w", room, err)
	}

	if s.metrics != nil {
		s.metrics.RecordCredentialsIssued(role)
	}

	return &domain.Credentials{
		APIKey:    s.platform.APIKey(),
		SessionID: session.ID,
		Token:     token,
		Role:      role,
	}, nil
}

func (s *credentialService) createSession(ctx context.Context, room domain.RoomName) (*domain.Session, error) {
	sessionID, err := s.platform.CreateSession(ctx, defaultMediaMode)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        sessionID,
		Room:      room,
		CreatedAt: time.Now(),
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to cache session for room %s: %w", room, err)
	}

	s.logger.Infow("created session",
		"room", room,
		"session_id", sessionID,
	)
	return session, nil
}

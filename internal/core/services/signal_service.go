package services

import (
	"context"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"go.uber.org/zap"
)

type signalService struct {
	platform ports.VideoPlatform
	logger   *zap.SugaredLogger
}

// NewSignalService returns the relay used to push application signals to
// connected clients over the vendor's session channel.
func NewSignalService(platform ports.VideoPlatform, logger *zap.SugaredLogger) ports.SignalService {
	return &signalService{platform: platform, logger: logger}
}

func (s *signalService) Broadcast(ctx context.Context, sessionID domain.SessionID, signalType, data string) error {
	return s.platform.SendSignal(ctx, sessionID, "", signalType, data)
}

func (s *signalService) Send(ctx context.Context, sessionID domain.SessionID, connectionID domain.ConnectionID, signalType, data string) error {
	return s.platform.SendSignal(ctx, sessionID, connectionID, signalType, data)
}

package services

import (
	"context"
	"testing"

	"stagecast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

func TestSignalService_BroadcastTargetsWholeSession(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc := NewSignalService(platform, zaptest.NewLogger(t).Sugar())

	platform.On("SendSignal", mock.Anything, domain.SessionID("sess-1"), domain.ConnectionID(""), "broadcast", "active").
		Return(nil).Once()

	err := svc.Broadcast(context.Background(), "sess-1", "broadcast", "active")
	assert.NoError(t, err)
	platform.AssertExpectations(t)
}

func TestSignalService_SendTargetsSingleConnection(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc := NewSignalService(platform, zaptest.NewLogger(t).Sugar())

	platform.On("SendSignal", mock.Anything, domain.SessionID("sess-1"), domain.ConnectionID("conn-9"), "broadcast-url", "https://cdn.example.com/live.m3u8").
		Return(nil).Once()

	err := svc.Send(context.Background(), "sess-1", "conn-9", "broadcast-url", "https://cdn.example.com/live.m3u8")
	assert.NoError(t, err)
	platform.AssertExpectations(t)
}

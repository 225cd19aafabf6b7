package ports

import (
	"context"
	"encoding/json"

	"stagecast/internal/core/domain"
)

type CredentialService interface {
	GetCredentials(ctx context.Context, role domain.Role, room domain.RoomName) (*domain.Credentials, error)
}

type BroadcastService interface {
	Start(ctx context.Context, sessionID domain.SessionID, rtmp *domain.RTMPTarget, opts domain.BroadcastOptions) (*domain.BroadcastRecord, error)
	UpdateLayout(ctx context.Context, sessionID domain.SessionID, streams int, layoutType domain.LayoutType) error
	UpdateStreamClassList(ctx context.Context, sessionID domain.SessionID, classes []domain.StreamClass) error
	End(ctx context.Context, sessionID domain.SessionID) (json.RawMessage, error)
	AddStream(ctx context.Context, room domain.RoomName, streamID domain.StreamID) error
	ActiveURL(ctx context.Context, room domain.RoomName) (string, error)
}

type SignalService interface {
	Broadcast(ctx context.Context, sessionID domain.SessionID, signalType, data string) error
	Send(ctx context.Context, sessionID domain.SessionID, connectionID domain.ConnectionID, signalType, data string) error
}

// SpeakerService consumes client audio-level reports and keeps the
// composed layout focused on the active speaker.
type SpeakerService interface {
	ReportLevel(ctx context.Context, sessionID domain.SessionID, streamID domain.StreamID, level float64)
	DropStream(sessionID domain.SessionID, streamID domain.StreamID)
}

type RenderService interface {
	Create(ctx context.Context, sessionID domain.SessionID, room domain.RoomName, bgChoice string, round bool) (*domain.RenderJob, error)
	Delete(ctx context.Context, id domain.RenderID) (json.RawMessage, error)
}

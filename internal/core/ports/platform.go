package ports

import (
	"context"
	"encoding/json"
	"time"

	"stagecast/internal/core/domain"
)

// BroadcastRequest is the input for the vendor broadcast-start call.
type BroadcastRequest struct {
	SessionID  domain.SessionID
	Layout     domain.LayoutSpec
	RTMP       *domain.RTMPTarget
	LowLatency bool
	DVR        bool
	FHD        bool
	StreamMode string
}

// BroadcastStarted is the parsed vendor response to a broadcast-start call.
type BroadcastStarted struct {
	ID        domain.BroadcastID
	HLSURL    string
	RTMPSet   bool
	APIKey    string
	CreatedAt time.Time
}

// RenderRequest describes a headless-browser composition job.
type RenderRequest struct {
	SessionID   domain.SessionID
	Token       string
	URL         string
	MaxDuration time.Duration
}

// VideoPlatform is the vendor control API. The session/media transport,
// HLS/RTMP encoding and signaling delivery all live on the vendor side;
// this interface only drives them.
type VideoPlatform interface {
	APIKey() string

	CreateSession(ctx context.Context, mediaMode string) (domain.SessionID, error)
	GenerateToken(sessionID domain.SessionID, role domain.Role) (string, error)

	StartBroadcast(ctx context.Context, req BroadcastRequest) (*BroadcastStarted, error)
	StopBroadcast(ctx context.Context, id domain.BroadcastID) (json.RawMessage, error)
	SetBroadcastLayout(ctx context.Context, id domain.BroadcastID, layout domain.LayoutSpec) error
	SetStreamClassLists(ctx context.Context, sessionID domain.SessionID, classes []domain.StreamClass) error
	AddBroadcastStream(ctx context.Context, id domain.BroadcastID, streamID domain.StreamID) error

	SendSignal(ctx context.Context, sessionID domain.SessionID, connectionID domain.ConnectionID, signalType, data string) error

	StartRender(ctx context.Context, req RenderRequest) (*domain.RenderJob, error)
	StopRender(ctx context.Context, id domain.RenderID) (json.RawMessage, error)
}

package services

import (
	"context"
	"encoding/json"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

// Mock vendor platform
type MockVideoPlatform struct {
	mock.Mock
}

func (m *MockVideoPlatform) APIKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockVideoPlatform) CreateSession(ctx context.Context, mediaMode string) (domain.SessionID, error) {
	args := m.Called(ctx, mediaMode)
	return args.Get(0).(domain.SessionID), args.Error(1)
}

func (m *MockVideoPlatform) GenerateToken(sessionID domain.SessionID, role domain.Role) (string, error) {
	args := m.Called(sessionID, role)
	return args.String(0), args.Error(1)
}

func (m *MockVideoPlatform) StartBroadcast(ctx context.Context, req ports.BroadcastRequest) (*ports.BroadcastStarted, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.BroadcastStarted), args.Error(1)
}

func (m *MockVideoPlatform) StopBroadcast(ctx context.Context, id domain.BroadcastID) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockVideoPlatform) SetBroadcastLayout(ctx context.Context, id domain.BroadcastID, layout domain.LayoutSpec) error {
	args := m.Called(ctx, id, layout)
	return args.Error(0)
}

func (m *MockVideoPlatform) SetStreamClassLists(ctx context.Context, sessionID domain.SessionID, classes []domain.StreamClass) error {
	args := m.Called(ctx, sessionID, classes)
	return args.Error(0)
}

func (m *MockVideoPlatform) AddBroadcastStream(ctx context.Context, id domain.BroadcastID, streamID domain.StreamID) error {
	args := m.Called(ctx, id, streamID)
	return args.Error(0)
}

func (m *MockVideoPlatform) SendSignal(ctx context.Context, sessionID domain.SessionID, connectionID domain.ConnectionID, signalType, data string) error {
	args := m.Called(ctx, sessionID, connectionID, signalType, data)
	return args.Error(0)
}

func (m *MockVideoPlatform) StartRender(ctx context.Context, req ports.RenderRequest) (*domain.RenderJob, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RenderJob), args.Error(1)
}

func (m *MockVideoPlatform) StopRender(ctx context.Context, id domain.RenderID) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// Mock repositories
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByRoom(ctx context.Context, room domain.RoomName) (*domain.Session, error) {
	args := m.Called(ctx, room)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

type MockBroadcastRepository struct {
	mock.Mock
}

func (m *MockBroadcastRepository) Create(ctx context.Context, record *domain.BroadcastRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBroadcastRepository) Put(ctx context.Context, record *domain.BroadcastRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBroadcastRepository) GetBySession(ctx context.Context, sessionID domain.SessionID) (*domain.BroadcastRecord, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BroadcastRecord), args.Error(1)
}

func (m *MockBroadcastRepository) Delete(ctx context.Context, sessionID domain.SessionID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// stubRecorder counts metric calls without asserting on them.
type stubRecorder struct {
	credentialsIssued int
	started           int
	ended             int
	speakerSwitches   int
}

func (r *stubRecorder) RecordCredentialsIssued(domain.Role)            { r.credentialsIssued++ }
func (r *stubRecorder) RecordBroadcastStarted()                        { r.started++ }
func (r *stubRecorder) RecordBroadcastEnded()                          { r.ended++ }
func (r *stubRecorder) RecordSpeakerSwitch()                           { r.speakerSwitches++ }
func (r *stubRecorder) ObserveVendorCall(string, time.Duration, error) {}

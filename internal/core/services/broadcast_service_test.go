package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

func newBroadcastFixture(t *testing.T, platform *MockVideoPlatform) (ports.BroadcastService, ports.SessionRepository, ports.BroadcastRepository, *stubRecorder) {
	sessions := memory.NewMemorySessionRepository()
	broadcasts := memory.NewMemoryBroadcastRepository()
	recorder := &stubRecorder{}
	logger := zaptest.NewLogger(t).Sugar()

	svc := NewBroadcastService(platform, sessions, broadcasts, nil, recorder, 0, 0, logger)
	return svc, sessions, broadcasts, recorder
}

func seedSession(t *testing.T, sessions ports.SessionRepository, room, sessionID string) {
	t.Helper()
	err := sessions.Save(context.Background(), &domain.Session{
		ID:        domain.SessionID(sessionID),
		Room:      domain.RoomName(room),
		CreatedAt: time.Now(),
	})
	assert.NoError(t, err)
}

func startedResponse(createdAt time.Time) *ports.BroadcastStarted {
	return &ports.BroadcastStarted{
		ID:        "bc-1",
		HLSURL:    "https://cdn.example.com/hls/bc-1.m3u8",
		APIKey:    "key-1",
		CreatedAt: createdAt,
	}
}

func TestBroadcastService_Start_Idempotent(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, recorder := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()

	first, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)

	// Second start with different options must not hit the vendor again.
	second, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{DVR: true})
	assert.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, recorder.started)
	platform.AssertNumberOfCalls(t, "StartBroadcast", 1)
}

func TestBroadcastService_Start_UnknownSession(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, _, _, _ := newBroadcastFixture(t, platform)

	_, err := svc.Start(context.Background(), "sess-missing", nil, domain.BroadcastOptions{})
	assert.ErrorIs(t, err, domain.ErrNoSession)
	platform.AssertNotCalled(t, "StartBroadcast")
}

func TestBroadcastService_Start_DVRForcesLowLatencyOff(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	platform.On("StartBroadcast", mock.Anything, mock.MatchedBy(func(req ports.BroadcastRequest) bool {
		return req.DVR && !req.LowLatency
	})).Return(startedResponse(time.Now()), nil).Once()

	_, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{DVR: true, LowLatency: true})
	assert.NoError(t, err)
	platform.AssertExpectations(t)
}

func TestBroadcastService_Start_LayoutHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		streams  int
		wantType domain.LayoutType
	}{
		{"few streams use custom horizontal", 2, domain.LayoutCustom},
		{"break point stays custom", 3, domain.LayoutCustom},
		{"many streams use best fit", 4, domain.LayoutBestFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := new(MockVideoPlatform)
			svc, sessions, _, _ := newBroadcastFixture(t, platform)
			seedSession(t, sessions, "room-1", "sess-1")

			platform.On("StartBroadcast", mock.Anything, mock.MatchedBy(func(req ports.BroadcastRequest) bool {
				return req.Layout.Type == tt.wantType
			})).Return(startedResponse(time.Now()), nil).Once()

			_, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{Streams: tt.streams})
			assert.NoError(t, err)
			platform.AssertExpectations(t)
		})
	}
}

func TestBroadcastService_Start_NoRTMP(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(createdAt), nil).Once()

	record, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{LowLatency: true})
	assert.NoError(t, err)
	assert.NotEmpty(t, record.HLSURL)
	assert.Nil(t, record.RTMPTarget)
	assert.Equal(t, createdAt.Add(20*time.Second), record.AvailableAt)
}

func TestBroadcastService_Start_InvalidRTMP(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	_, err := svc.Start(context.Background(), "sess-1", &domain.RTMPTarget{
		ServerURL:  "http://not-rtmp.example.com",
		StreamName: "show",
	}, domain.BroadcastOptions{})
	assert.Error(t, err)
	platform.AssertNotCalled(t, "StartBroadcast")
}

func TestBroadcastService_End_ClearsRecordOnVendorFailure(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, broadcasts, recorder := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()
	platform.On("StopBroadcast", mock.Anything, domain.BroadcastID("bc-1")).
		Return(nil, errors.New("vendor responded 500 on stop_broadcast")).Once()

	_, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)

	_, err = svc.End(context.Background(), "sess-1")
	assert.Error(t, err)

	// The record must be gone despite the failed vendor stop.
	_, err = broadcasts.GetBySession(context.Background(), "sess-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveBroadcast)
	assert.Equal(t, 1, recorder.ended)

	// A fresh start issues a new vendor call.
	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()
	_, err = svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)
	platform.AssertNumberOfCalls(t, "StartBroadcast", 2)
}

func TestBroadcastService_End_NoActiveBroadcast(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	_, err := svc.End(context.Background(), "sess-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveBroadcast)
}

func TestBroadcastService_UpdateLayout_NoActiveBroadcast(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, _, _, _ := newBroadcastFixture(t, platform)

	err := svc.UpdateLayout(context.Background(), "sess-1", 2, "")
	assert.ErrorIs(t, err, domain.ErrNoActiveBroadcast)
}

func TestBroadcastService_UpdateLayout_ExplicitTypeWins(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()
	platform.On("SetBroadcastLayout", mock.Anything, domain.BroadcastID("bc-1"), mock.MatchedBy(func(layout domain.LayoutSpec) bool {
		return layout.Type == domain.LayoutBestFit
	})).Return(nil).Once()

	_, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)

	// Two streams would pick custom, but the explicit type overrides.
	err = svc.UpdateLayout(context.Background(), "sess-1", 2, domain.LayoutBestFit)
	assert.NoError(t, err)
	platform.AssertExpectations(t)
}

func TestBroadcastService_UpdateStreamClassList_NoActiveBroadcast(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, _, _, _ := newBroadcastFixture(t, platform)

	err := svc.UpdateStreamClassList(context.Background(), "sess-1", []domain.StreamClass{
		{ID: "stream-1", ClassList: []string{"focus"}},
	})
	assert.ErrorIs(t, err, domain.ErrNoActiveBroadcast)
}

func TestBroadcastService_AddStream_Tolerates204(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()
	platform.On("AddBroadcastStream", mock.Anything, domain.BroadcastID("bc-1"), domain.StreamID("stream-1")).
		Return(errors.New("vendor responded 204 on add_stream")).Once()

	_, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)

	err = svc.AddStream(context.Background(), "room-1", "stream-1")
	assert.NoError(t, err)
}

func TestBroadcastService_AddStream_UnknownRoom(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, _, _, _ := newBroadcastFixture(t, platform)

	err := svc.AddStream(context.Background(), "room-missing", "stream-1")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestBroadcastService_ActiveURL(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, _, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	_, err := svc.ActiveURL(context.Background(), "room-1")
	assert.ErrorIs(t, err, domain.ErrNoBroadcastURL)

	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()
	_, err = svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)

	url, err := svc.ActiveURL(context.Background(), "room-1")
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/hls/bc-1.m3u8", url)
}

func TestBroadcastService_Start_EmitsSignals(t *testing.T) {
	platform := new(MockVideoPlatform)
	sessions := memory.NewMemorySessionRepository()
	broadcasts := memory.NewMemoryBroadcastRepository()
	logger := zaptest.NewLogger(t).Sugar()

	signals := NewSignalService(platform, logger)
	svc := NewBroadcastService(platform, sessions, broadcasts, signals, &stubRecorder{}, 0, 0, logger)
	seedSession(t, sessions, "room-1", "sess-1")

	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()
	platform.On("SendSignal", mock.Anything, domain.SessionID("sess-1"), domain.ConnectionID(""), SignalTypeBroadcast, string(domain.BroadcastActive)).
		Return(nil).Once()
	platform.On("SendSignal", mock.Anything, domain.SessionID("sess-1"), domain.ConnectionID(""), SignalTypeBroadcastURL, "https://cdn.example.com/hls/bc-1.m3u8").
		Return(nil).Once()

	_, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)
	platform.AssertExpectations(t)
}

func TestBroadcastService_Start_HonorsConfiguredPublishDelay(t *testing.T) {
	platform := new(MockVideoPlatform)
	sessions := memory.NewMemorySessionRepository()
	broadcasts := memory.NewMemoryBroadcastRepository()
	logger := zaptest.NewLogger(t).Sugar()

	svc := NewBroadcastService(platform, sessions, broadcasts, nil, &stubRecorder{}, 5*time.Second, 0, logger)
	seedSession(t, sessions, "room-1", "sess-1")

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(createdAt), nil).Once()

	record, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)
	assert.Equal(t, createdAt.Add(5*time.Second), record.AvailableAt)
}

func TestBroadcastService_Start_HonorsConfiguredLayoutBreakPoint(t *testing.T) {
	platform := new(MockVideoPlatform)
	sessions := memory.NewMemorySessionRepository()
	broadcasts := memory.NewMemoryBroadcastRepository()
	logger := zaptest.NewLogger(t).Sugar()

	svc := NewBroadcastService(platform, sessions, broadcasts, nil, &stubRecorder{}, 0, 2, logger)
	seedSession(t, sessions, "room-1", "sess-1")

	platform.On("StartBroadcast", mock.Anything, mock.MatchedBy(func(req ports.BroadcastRequest) bool {
		return req.Layout.Type == domain.LayoutBestFit
	})).Return(startedResponse(time.Now()), nil).Once()

	_, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{Streams: 3})
	assert.NoError(t, err)
	platform.AssertExpectations(t)
}

func TestBroadcastService_Start_LostCreateRaceStopsDuplicate(t *testing.T) {
	platform := new(MockVideoPlatform)
	sessions := memory.NewMemorySessionRepository()
	broadcasts := new(MockBroadcastRepository)
	logger := zaptest.NewLogger(t).Sugar()

	svc := NewBroadcastService(platform, sessions, broadcasts, nil, &stubRecorder{}, 0, 0, logger)
	seedSession(t, sessions, "room-1", "sess-1")

	winner := &domain.BroadcastRecord{
		ID:        "bc-other",
		SessionID: "sess-1",
		HLSURL:    "https://cdn.example.com/hls/bc-other.m3u8",
		Status:    domain.BroadcastActive,
	}

	// Another instance claims the record between our existence check and
	// our create; the store rejects the second create.
	broadcasts.On("GetBySession", mock.Anything, domain.SessionID("sess-1")).
		Return(nil, domain.ErrNoActiveBroadcast).Once()
	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()
	broadcasts.On("Create", mock.Anything, mock.Anything).
		Return(domain.ErrBroadcastExists).Once()
	platform.On("StopBroadcast", mock.Anything, domain.BroadcastID("bc-1")).
		Return(json.RawMessage(`{}`), nil).Once()
	broadcasts.On("GetBySession", mock.Anything, domain.SessionID("sess-1")).
		Return(winner, nil).Once()

	record, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)
	assert.Equal(t, winner.ID, record.ID)
	platform.AssertExpectations(t)
	broadcasts.AssertExpectations(t)
}

func TestBroadcastService_Start_OverwritesStaleEndedRecord(t *testing.T) {
	platform := new(MockVideoPlatform)
	svc, sessions, broadcasts, _ := newBroadcastFixture(t, platform)
	seedSession(t, sessions, "room-1", "sess-1")

	stale := &domain.BroadcastRecord{
		ID:        "bc-old",
		SessionID: "sess-1",
		Status:    domain.BroadcastEnded,
	}
	assert.NoError(t, broadcasts.Put(context.Background(), stale))

	platform.On("StartBroadcast", mock.Anything, mock.Anything).
		Return(startedResponse(time.Now()), nil).Once()

	record, err := svc.Start(context.Background(), "sess-1", nil, domain.BroadcastOptions{})
	assert.NoError(t, err)
	assert.Equal(t, domain.BroadcastID("bc-1"), record.ID)

	stored, err := broadcasts.GetBySession(context.Background(), "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, domain.BroadcastActive, stored.Status)
}

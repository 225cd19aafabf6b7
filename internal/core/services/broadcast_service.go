package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	pkgerrors "stagecast/pkg/errors"
	"stagecast/pkg/tracing"
	"stagecast/pkg/validation"

	"go.uber.org/zap"
)

// Signal types understood by the browser clients.
const (
	SignalTypeBroadcast    = "broadcast"
	SignalTypeBroadcastURL = "broadcast-url"
)

type broadcastService struct {
	platform     ports.VideoPlatform
	sessions     ports.SessionRepository
	broadcasts   ports.BroadcastRepository
	signals      ports.SignalService
	metrics      ports.MetricsRecorder
	publishDelay time.Duration
	layoutBreak  int
	locks        *keyedMutex
	logger       *zap.SugaredLogger
}

func NewBroadcastService(
	platform ports.VideoPlatform,
	sessions ports.SessionRepository,
	broadcasts ports.BroadcastRepository,
	signals ports.SignalService,
	metrics ports.MetricsRecorder,
	publishDelay time.Duration,
	layoutBreakPoint int,
	logger *zap.SugaredLogger,
) ports.BroadcastService {
	if publishDelay <= 0 {
		publishDelay = domain.PublishDelay
	}
	return &broadcastService{
		platform:     platform,
		sessions:     sessions,
		broadcasts:   broadcasts,
		signals:      signals,
		metrics:      metrics,
		publishDelay: publishDelay,
		layoutBreak:  layoutBreakPoint,
		locks:        newKeyedMutex(),
		logger:       logger,
	}
}

// Start begins the HLS/RTMP broadcast for a session. Repeated calls for the
// same session before End return the cached record without a second vendor
// call, even when the requested parameters differ from the cached ones.
func (s *broadcastService) Start(ctx context.Context, sessionID domain.SessionID, rtmp *domain.RTMPTarget, opts domain.BroadcastOptions) (*domain.BroadcastRecord, error) {
	tracing.AddSpanAttributes(ctx, tracing.SessionIDKey.String(string(sessionID)))

	if rtmp != nil {
		if err := validation.ValidateRTMPTarget(rtmp.ServerURL, rtmp.StreamName); err != nil {
			return nil, pkgerrors.NewInvalidInputError(err.Error())
		}
		if rtmp.ServerURL == "" {
			rtmp = nil
		}
	}

	unlock := s.locks.lock(string(sessionID))
	defer unlock()

	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, domain.ErrNoSession
	}

	staleEnded := false
	if cached, err := s.broadcasts.GetBySession(ctx, sessionID); err == nil {
		if cached.Status != domain.BroadcastEnded {
			return cached, nil
		}
		staleEnded = true
	}

	// DVR and low-latency HLS are mutually exclusive; DVR wins.
	if opts.DVR {
		opts.LowLatency = false
	}

	started, err := s.platform.StartBroadcast(ctx, ports.BroadcastRequest{
		SessionID:  sessionID,
		Layout:     domain.LayoutForStreams(opts.Streams, s.layoutBreak, ""),
		RTMP:       rtmp,
		LowLatency: opts.LowLatency,
		DVR:        opts.DVR,
		FHD:        opts.FHD,
		StreamMode: opts.StreamMode,
	})
	if err != nil {
		return nil, err
	}

	apiKey := started.APIKey
	if apiKey == "" {
		apiKey = s.platform.APIKey()
	}

	record := &domain.BroadcastRecord{
		ID:          started.ID,
		SessionID:   sessionID,
		HLSURL:      started.HLSURL,
		APIKey:      apiKey,
		CreatedAt:   started.CreatedAt,
		AvailableAt: started.CreatedAt.Add(s.publishDelay),
		Status:      domain.BroadcastActive,
	}
	if started.RTMPSet {
		record.RTMPTarget = rtmp
	}

	// Create-if-absent is what makes the single-record guarantee hold
	// across instances sharing a store; the keyed mutex only covers this
	// process. A stale ended record is overwritten in place.
	if staleEnded {
		err = s.broadcasts.Put(ctx, record)
	} else {
		err = s.broadcasts.Create(ctx, record)
	}
	if errors.Is(err, domain.ErrBroadcastExists) {
		// Another instance won the race after our vendor call went out.
		// Stop the duplicate and serve the winner's record.
		if _, stopErr := s.platform.StopBroadcast(ctx, record.ID); stopErr != nil {
			s.logger.Errorw("failed to stop duplicate broadcast",
				"session_id", sessionID,
				"broadcast_id", record.ID,
				"error", stopErr,
			)
		}
		if winner, getErr := s.broadcasts.GetBySession(ctx, sessionID); getErr == nil {
			return winner, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordBroadcastStarted()
	}
	s.logger.Infow("broadcast started",
		"session_id", sessionID,
		"broadcast_id", record.ID,
		"hls_url", record.HLSURL,
	)

	s.notify(ctx, sessionID, SignalTypeBroadcast, string(domain.BroadcastActive))
	s.notify(ctx, sessionID, SignalTypeBroadcastURL, record.HLSURL)

	return record, nil
}

// UpdateLayout recomputes the composition layout from the current stream
// count and pushes it to the vendor. An explicit layout type always wins
// over the stream-count heuristic.
func (s *broadcastService) UpdateLayout(ctx context.Context, sessionID domain.SessionID, streams int, layoutType domain.LayoutType) error {
	record, err := s.broadcasts.GetBySession(ctx, sessionID)
	if err != nil {
		return domain.ErrNoActiveBroadcast
	}

	layout := domain.LayoutForStreams(streams, s.layoutBreak, layoutType)
	return s.platform.SetBroadcastLayout(ctx, record.ID, layout)
}

// UpdateStreamClassList pushes per-stream CSS class assignments, used to
// focus the active speaker in the composed output.
func (s *broadcastService) UpdateStreamClassList(ctx context.Context, sessionID domain.SessionID, classes []domain.StreamClass) error {
	if _, err := s.broadcasts.GetBySession(ctx, sessionID); err != nil {
		return domain.ErrNoActiveBroadcast
	}

	return s.platform.SetStreamClassLists(ctx, sessionID, classes)
}

// End stops the broadcast. The in-memory record is cleared no matter how
// the vendor call goes, so the coordinator never stays stuck on a
// broadcast it already tried to end.
func (s *broadcastService) End(ctx context.Context, sessionID domain.SessionID) (json.RawMessage, error) {
	unlock := s.locks.lock(string(sessionID))
	defer unlock()

	record, err := s.broadcasts.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrNoActiveBroadcast
	}

	defer func() {
		if err := s.broadcasts.Delete(ctx, sessionID); err != nil {
			s.logger.Errorw("failed to clear broadcast record",
				"session_id", sessionID,
				"error", err,
			)
		}
		if s.metrics != nil {
			s.metrics.RecordBroadcastEnded()
		}
		s.notify(ctx, sessionID, SignalTypeBroadcast, string(domain.BroadcastEnded))
	}()

	resp, err := s.platform.StopBroadcast(ctx, record.ID)
	if err != nil {
		s.logger.Errorw("vendor stop failed, record cleared anyway",
			"session_id", sessionID,
			"broadcast_id", record.ID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Infow("broadcast ended",
		"session_id", sessionID,
		"broadcast_id", record.ID,
	)
	return resp, nil
}

// AddStream manually adds a published stream to the running broadcast.
// The vendor rejects re-adding an already-added stream with a bare 204;
// that response is treated as success so client retries stay harmless.
func (s *broadcastService) AddStream(ctx context.Context, room domain.RoomName, streamID domain.StreamID) error {
	if err := validation.ValidateStreamID(string(streamID)); err != nil {
		return pkgerrors.NewInvalidInputError(err.Error())
	}

	session, err := s.sessions.GetByRoom(ctx, room)
	if err != nil {
		return domain.ErrNoSession
	}

	record, err := s.broadcasts.GetBySession(ctx, session.ID)
	if err != nil {
		return domain.ErrNoActiveBroadcast
	}

	if err := s.platform.AddBroadcastStream(ctx, record.ID, streamID); err != nil {
		if strings.Contains(err.Error(), "204") {
			s.logger.Debugw("stream already added to broadcast",
				"broadcast_id", record.ID,
				"stream_id", streamID,
			)
			return nil
		}
		return err
	}
	return nil
}

// ActiveURL resolves the playable HLS URL for a room.
func (s *broadcastService) ActiveURL(ctx context.Context, room domain.RoomName) (string, error) {
	session, err := s.sessions.GetByRoom(ctx, room)
	if err != nil {
		return "", domain.ErrNoBroadcastURL
	}

	record, err := s.broadcasts.GetBySession(ctx, session.ID)
	if err != nil || record.HLSURL == "" {
		return "", domain.ErrNoBroadcastURL
	}
	return record.HLSURL, nil
}

// notify relays a status signal through the vendor channel. Delivery is
// best effort; a failed signal never fails the triggering operation.
func (s *broadcastService) notify(ctx context.Context, sessionID domain.SessionID, signalType, data string) {
	if s.signals == nil {
		return
	}
	if err := s.signals.Broadcast(ctx, sessionID, signalType, data); err != nil {
		s.logger.Warnw("signal relay failed",
			"session_id", sessionID,
			"type", signalType,
			"error", err,
		)
	}
}

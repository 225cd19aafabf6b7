package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/tracing"

	"go.uber.org/zap"
)

type renderService struct {
	platform    ports.VideoPlatform
	baseURL     string
	maxDuration time.Duration
	logger      *zap.SugaredLogger
}

// NewRenderService wires the experience-composer lifecycle. The composer
// loads this service's own /ec page as a hidden publisher, so baseURL must
// be reachable from the vendor cloud.
func NewRenderService(platform ports.VideoPlatform, baseURL string, maxDuration time.Duration, logger *zap.SugaredLogger) ports.RenderService {
	return &renderService{
		platform:    platform,
		baseURL:     baseURL,
		maxDuration: maxDuration,
		logger:      logger,
	}
}

func (s *renderService) Create(ctx context.Context, sessionID domain.SessionID, room domain.RoomName, bgChoice string, round bool) (*domain.RenderJob, error) {
	tracing.AddSpanAttributes(ctx, tracing.SessionIDKey.String(string(sessionID)))

	// The composer page only subscribes; the vendor adds the composed
	// stream to the session itself.
	token, err := s.platform.GenerateToken(sessionID, domain.RoleViewer)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("room", string(room))
	if bgChoice != "" {
		q.Set("bg", bgChoice)
	}
	if round {
		q.Set("round", "true")
	}

	job, err := s.platform.StartRender(ctx, ports.RenderRequest{
		SessionID:   sessionID,
		Token:       token,
		URL:         s.baseURL + "/ec?" + q.Encode(),
		MaxDuration: s.maxDuration,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("render started",
		"session_id", sessionID,
		"render_id", job.ID,
		"url", job.URL,
	)
	return job, nil
}

func (s *renderService) Delete(ctx context.Context, id domain.RenderID) (json.RawMessage, error) {
	resp, err := s.platform.StopRender(ctx, id)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return nil, domain.ErrRenderNotFound
		}
		return nil, err
	}
	s.logger.Infow("render stopped", "render_id", id)
	return resp, nil
}

package opentok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	pkgerrors "stagecast/pkg/errors"
	"stagecast/pkg/tracing"

	"go.uber.org/zap"
)

const (
	projectAuthTTL = time.Minute
	// Render calls authenticate with an effectively one-shot credential.
	renderAuthTTL  = 200 * time.Millisecond
	clientTokenTTL = 24 * time.Hour

	resolutionHD  = "1280x720"
	resolutionFHD = "1920x1080"
)

// CallObserver receives timing for every vendor API round-trip.
type CallObserver interface {
	ObserveVendorCall(operation string, duration time.Duration, err error)
}

// Client drives the vendor project REST API. It owns authentication and
// wire formats; all failures surface as upstream errors without retry.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	observer   CallObserver
}

func NewClient(apiKey, apiSecret, baseURL string, timeout time.Duration, logger *zap.SugaredLogger, observer CallObserver) ports.VideoPlatform {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		observer:   observer,
	}
}

func (c *Client) APIKey() string {
	return c.apiKey
}

func (c *Client) projectURL(path string) string {
	return fmt.Sprintf("%s/v2/project/%s%s", c.baseURL, c.apiKey, path)
}

// do performs one authenticated vendor round-trip and returns the raw
// response body. Non-2xx responses become upstream errors carrying the
// vendor payload.
func (c *Client) do(ctx context.Context, operation, method, rawURL string, authTTL time.Duration, body interface{}) (json.RawMessage, error) {
	ctx, span := tracing.TraceVendorCall(ctx, operation)
	defer span.End()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.WrapError(err, pkgerrors.ErrCodeInternal, "failed to encode vendor request", http.StatusInternalServerError)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, pkgerrors.WrapError(err, pkgerrors.ErrCodeInternal, "failed to build vendor request", http.StatusInternalServerError)
	}

	auth, err := projectJWT(c.apiKey, c.apiSecret, authTTL)
	if err != nil {
		return nil, pkgerrors.WrapError(err, pkgerrors.ErrCodeInternal, "failed to sign vendor credential", http.StatusInternalServerError)
	}
	req.Header.Set("X-OPENTOK-AUTH", auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveVendorCall(operation, duration, err)
	}

	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, pkgerrors.NewUpstreamError(err, "")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, pkgerrors.NewUpstreamError(err, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		vendorErr := fmt.Errorf("vendor responded %d on %s", resp.StatusCode, operation)
		tracing.RecordError(ctx, vendorErr)
		c.logger.Errorw("vendor call failed",
			"operation", operation,
			"status", resp.StatusCode,
			"body", string(payload),
		)
		return nil, pkgerrors.NewUpstreamError(vendorErr, string(payload))
	}

	c.logger.Debugw("vendor call completed",
		"operation", operation,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return payload, nil
}

// CreateSession requests a new session id. The create endpoint is the one
// legacy form-encoded call on the project API.
func (c *Client) CreateSession(ctx context.Context, mediaMode string) (domain.SessionID, error) {
	ctx, span := tracing.TraceVendorCall(ctx, "create_session")
	defer span.End()

	form := url.Values{}
	if mediaMode == "relayed" {
		form.Set("p2p.preference", "enabled")
	} else {
		form.Set("p2p.preference", "disabled")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session/create", strings.NewReader(form.Encode()))
	if err != nil {
		return "", pkgerrors.WrapError(err, pkgerrors.ErrCodeInternal, "failed to build vendor request", http.StatusInternalServerError)
	}

	auth, err := projectJWT(c.apiKey, c.apiSecret, projectAuthTTL)
	if err != nil {
		return "", pkgerrors.WrapError(err, pkgerrors.ErrCodeInternal, "failed to sign vendor credential", http.StatusInternalServerError)
	}
	req.Header.Set("X-OPENTOK-AUTH", auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveVendorCall("create_session", duration, err)
	}

	if err != nil {
		tracing.RecordError(ctx, err)
		return "", pkgerrors.NewUpstreamError(err, "")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", pkgerrors.NewUpstreamError(err, "")
	}

	if resp.StatusCode != http.StatusOK {
		vendorErr := fmt.Errorf("vendor responded %d on create_session", resp.StatusCode)
		tracing.RecordError(ctx, vendorErr)
		return "", pkgerrors.NewUpstreamError(vendorErr, string(payload))
	}

	var sessions []struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(payload, &sessions); err != nil || len(sessions) == 0 || sessions[0].SessionID == "" {
		return "", pkgerrors.NewUpstreamError(fmt.Errorf("vendor returned malformed session payload"), string(payload))
	}

	return domain.SessionID(sessions[0].SessionID), nil
}

func (c *Client) GenerateToken(sessionID domain.SessionID, role domain.Role) (string, error) {
	token, err := clientJWT(c.apiKey, c.apiSecret, sessionID, role, clientTokenTTL)
	if err != nil {
		return "", pkgerrors.WrapError(err, pkgerrors.ErrCodeInternal, "failed to sign connection token", http.StatusInternalServerError)
	}
	return token, nil
}

type broadcastLayoutBody struct {
	Type       string `json:"type"`
	Stylesheet string `json:"stylesheet,omitempty"`
}

type broadcastHLSBody struct {
	LowLatency bool `json:"lowLatency"`
	DVR        bool `json:"dvr"`
}

type broadcastOutputsBody struct {
	HLS  broadcastHLSBody    `json:"hls"`
	RTMP []domain.RTMPTarget `json:"rtmp,omitempty"`
}

type broadcastStartBody struct {
	SessionID  string               `json:"sessionId"`
	Layout     broadcastLayoutBody  `json:"layout"`
	Outputs    broadcastOutputsBody `json:"outputs"`
	Resolution string               `json:"resolution"`
	StreamMode string               `json:"streamMode,omitempty"`
}

type broadcastStartResponse struct {
	ID            string      `json:"id"`
	PartnerID     json.Number `json:"partnerId"`
	CreatedAt     int64       `json:"createdAt"`
	BroadcastURLs struct {
		HLS  string `json:"hls"`
		RTMP []struct {
			ServerURL  string `json:"serverUrl"`
			StreamName string `json:"streamName"`
		} `json:"rtmp"`
	} `json:"broadcastUrls"`
}

func (c *Client) StartBroadcast(ctx context.Context, req ports.BroadcastRequest) (*ports.BroadcastStarted, error) {
	resolution := resolutionHD
	if req.FHD {
		resolution = resolutionFHD
	}

	body := broadcastStartBody{
		SessionID: string(req.SessionID),
		Layout: broadcastLayoutBody{
			Type:       string(req.Layout.Type),
			Stylesheet: req.Layout.Stylesheet,
		},
		Outputs: broadcastOutputsBody{
			HLS: broadcastHLSBody{LowLatency: req.LowLatency, DVR: req.DVR},
		},
		Resolution: resolution,
		StreamMode: req.StreamMode,
	}
	if req.RTMP != nil {
		body.Outputs.RTMP = []domain.RTMPTarget{*req.RTMP}
	}

	payload, err := c.do(ctx, "start_broadcast", http.MethodPost, c.projectURL("/broadcast"), projectAuthTTL, body)
	if err != nil {
		return nil, err
	}

	var started broadcastStartResponse
	if err := json.Unmarshal(payload, &started); err != nil {
		return nil, pkgerrors.NewUpstreamError(fmt.Errorf("vendor returned malformed broadcast payload: %w", err), string(payload))
	}

	result := &ports.BroadcastStarted{
		ID:        domain.BroadcastID(started.ID),
		HLSURL:    started.BroadcastURLs.HLS,
		RTMPSet:   len(started.BroadcastURLs.RTMP) > 0,
		APIKey:    started.PartnerID.String(),
		CreatedAt: time.UnixMilli(started.CreatedAt),
	}
	return result, nil
}

func (c *Client) StopBroadcast(ctx context.Context, id domain.BroadcastID) (json.RawMessage, error) {
	return c.do(ctx, "stop_broadcast", http.MethodPost, c.projectURL(fmt.Sprintf("/broadcast/%s/stop", id)), projectAuthTTL, nil)
}

func (c *Client) SetBroadcastLayout(ctx context.Context, id domain.BroadcastID, layout domain.LayoutSpec) error {
	body := broadcastLayoutBody{
		Type:       string(layout.Type),
		Stylesheet: layout.Stylesheet,
	}
	_, err := c.do(ctx, "set_broadcast_layout", http.MethodPut, c.projectURL(fmt.Sprintf("/broadcast/%s/layout", id)), projectAuthTTL, body)
	return err
}

func (c *Client) SetStreamClassLists(ctx context.Context, sessionID domain.SessionID, classes []domain.StreamClass) error {
	body := struct {
		Items []domain.StreamClass `json:"items"`
	}{Items: classes}

	_, err := c.do(ctx, "set_stream_class_lists", http.MethodPut, c.projectURL(fmt.Sprintf("/session/%s/stream", sessionID)), projectAuthTTL, body)
	return err
}

func (c *Client) AddBroadcastStream(ctx context.Context, id domain.BroadcastID, streamID domain.StreamID) error {
	body := struct {
		AddStream string `json:"addStream"`
		HasAudio  bool   `json:"hasAudio"`
		HasVideo  bool   `json:"hasVideo"`
	}{AddStream: string(streamID), HasAudio: true, HasVideo: true}

	_, err := c.do(ctx, "add_broadcast_stream", http.MethodPatch, c.projectURL(fmt.Sprintf("/broadcast/%s/streams", id)), projectAuthTTL, body)
	return err
}

func (c *Client) SendSignal(ctx context.Context, sessionID domain.SessionID, connectionID domain.ConnectionID, signalType, data string) error {
	path := fmt.Sprintf("/session/%s/signal", sessionID)
	if connectionID != "" {
		path = fmt.Sprintf("/session/%s/connection/%s/signal", sessionID, connectionID)
	}

	body := struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}{Type: signalType, Data: data}

	_, err := c.do(ctx, "send_signal", http.MethodPost, c.projectURL(path), projectAuthTTL, body)
	return err
}

type renderResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"createdAt"`
}

func (c *Client) StartRender(ctx context.Context, req ports.RenderRequest) (*domain.RenderJob, error) {
	body := struct {
		SessionID   string `json:"sessionId"`
		Token       string `json:"token"`
		URL         string `json:"url"`
		MaxDuration int    `json:"maxDuration"`
		Resolution  string `json:"resolution"`
	}{
		SessionID:   string(req.SessionID),
		Token:       req.Token,
		URL:         req.URL,
		MaxDuration: int(req.MaxDuration.Seconds()),
		Resolution:  resolutionHD,
	}

	payload, err := c.do(ctx, "start_render", http.MethodPost, c.projectURL("/render"), renderAuthTTL, body)
	if err != nil {
		return nil, err
	}

	var render renderResponse
	if err := json.Unmarshal(payload, &render); err != nil {
		return nil, pkgerrors.NewUpstreamError(fmt.Errorf("vendor returned malformed render payload: %w", err), string(payload))
	}

	return &domain.RenderJob{
		ID:        domain.RenderID(render.ID),
		SessionID: domain.SessionID(render.SessionID),
		URL:       render.URL,
		CreatedAt: time.UnixMilli(render.CreatedAt),
	}, nil
}

func (c *Client) StopRender(ctx context.Context, id domain.RenderID) (json.RawMessage, error) {
	return c.do(ctx, "stop_render", http.MethodDelete, c.projectURL(fmt.Sprintf("/render/%s", id)), renderAuthTTL, nil)
}

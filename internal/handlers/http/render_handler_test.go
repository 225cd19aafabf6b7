package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stagecast/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubRenderService struct {
	job      *domain.RenderJob
	stopBody json.RawMessage
	err      error
	lastBg   string
}

func (s *stubRenderService) Create(ctx context.Context, sessionID domain.SessionID, room domain.RoomName, bgChoice string, round bool) (*domain.RenderJob, error) {
	s.lastBg = bgChoice
	return s.job, s.err
}

func (s *stubRenderService) Delete(ctx context.Context, id domain.RenderID) (json.RawMessage, error) {
	return s.stopBody, s.err
}

func newRenderRouter(svc *stubRenderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewRenderHandler(svc).SetupRoutes(router)
	return router
}

func TestRenderHandler_Create(t *testing.T) {
	svc := &stubRenderService{
		job: &domain.RenderJob{
			ID:        "render-1",
			SessionID: "sess-1",
			URL:       "http://localhost:8080/ec?room=room-1",
			CreatedAt: time.Now(),
		},
	}
	router := newRenderRouter(svc)

	body := `{"sessionId":"sess-1","roomName":"room-1","bgChoice":"#222","round":true}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/render", strings.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"render-1"}`, w.Body.String())
	assert.Equal(t, "#222", svc.lastBg)
}

func TestRenderHandler_Create_MissingRoom(t *testing.T) {
	router := newRenderRouter(&stubRenderService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/render", strings.NewReader(`{"sessionId":"sess-1"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderHandler_Stop(t *testing.T) {
	svc := &stubRenderService{stopBody: json.RawMessage(`{"id":"render-1"}`)}
	router := newRenderRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/render/stop/render-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"render-1"}`, w.Body.String())
}

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"stagecast/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubCredentialService struct {
	lastRole domain.Role
	lastRoom domain.RoomName
	err      error
}

func (s *stubCredentialService) GetCredentials(ctx context.Context, role domain.Role, room domain.RoomName) (*domain.Credentials, error) {
	s.lastRole = role
	s.lastRoom = room
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Credentials{
		APIKey:    "key-1",
		SessionID: "sess-1",
		Token:     "tok",
		Role:      role,
	}, nil
}

func newPageRouter(creds *stubCredentialService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.LoadHTMLGlob("../../../web/templates/*.html")
	NewPageHandler(creds).SetupRoutes(router)
	return router
}

func TestPageHandler_RolePerPath(t *testing.T) {
	tests := []struct {
		path     string
		wantRole domain.Role
	}{
		{"/host", domain.RoleHost},
		{"/guest", domain.RoleGuest},
		{"/viewer", domain.RoleViewer},
		{"/hls-viewer", domain.RoleViewer},
		{"/ec", domain.RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			creds := &stubCredentialService{}
			router := newPageRouter(creds)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.path+"?room=stage-1", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantRole, creds.lastRole)
			assert.Equal(t, domain.RoomName("stage-1"), creds.lastRoom)
			assert.Contains(t, w.Body.String(), `"sessionId":"sess-1"`)
		})
	}
}

func TestPageHandler_DefaultRoom(t *testing.T) {
	creds := &stubCredentialService{}
	router := newPageRouter(creds)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/viewer", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.RoomName("main"), creds.lastRoom)
}

func TestPageHandler_InvalidRoom(t *testing.T) {
	router := newPageRouter(&stubCredentialService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/host?room=bad%20room", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageHandler_RootRedirectsToViewer(t *testing.T) {
	router := newPageRouter(&stubCredentialService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/viewer", w.Header().Get("Location"))
}

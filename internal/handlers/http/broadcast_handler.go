package http

import (
	"errors"
	"net/http"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	pkgerrors "stagecast/pkg/errors"

	"github.com/gin-gonic/gin"
)

type BroadcastHandler struct {
	broadcasts ports.BroadcastService
	speakers   ports.SpeakerService
}

func NewBroadcastHandler(broadcasts ports.BroadcastService, speakers ports.SpeakerService) *BroadcastHandler {
	return &BroadcastHandler{broadcasts: broadcasts, speakers: speakers}
}

func (h *BroadcastHandler) SetupRoutes(router *gin.Engine) {
	broadcast := router.Group("/broadcast")
	{
		broadcast.POST("/start", h.Start)
		broadcast.POST("/layout", h.UpdateLayout)
		broadcast.POST("/classes", h.UpdateClasses)
		broadcast.POST("/end", h.End)
		broadcast.POST("/audio-level", h.ReportAudioLevel)
		broadcast.GET("/:room", h.GetURL)
	}
	router.POST("/addStream", h.AddStream)
}

func (h *BroadcastHandler) Start(c *gin.Context) {
	var req struct {
		SessionID  domain.SessionID   `json:"sessionId" binding:"required"`
		RTMP       *domain.RTMPTarget `json:"rtmp"`
		LowLatency bool               `json:"lowLatency"`
		FHD        bool               `json:"fhd"`
		DVR        bool               `json:"dvr"`
		StreamMode string             `json:"streamMode"`
		Streams    int                `json:"streams"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.broadcasts.Start(c.Request.Context(), req.SessionID, req.RTMP, domain.BroadcastOptions{
		LowLatency: req.LowLatency,
		FHD:        req.FHD,
		DVR:        req.DVR,
		StreamMode: req.StreamMode,
		Streams:    req.Streams,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *BroadcastHandler) UpdateLayout(c *gin.Context) {
	var req struct {
		SessionID domain.SessionID  `json:"sessionId" binding:"required"`
		Streams   int               `json:"streams"`
		Type      domain.LayoutType `json:"type"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.broadcasts.UpdateLayout(c.Request.Context(), req.SessionID, req.Streams, req.Type); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (h *BroadcastHandler) UpdateClasses(c *gin.Context) {
	var req struct {
		SessionID domain.SessionID     `json:"sessionId" binding:"required"`
		ClassList []domain.StreamClass `json:"classList" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.broadcasts.UpdateStreamClassList(c.Request.Context(), req.SessionID, req.ClassList); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (h *BroadcastHandler) End(c *gin.Context) {
	var req struct {
		SessionID domain.SessionID `json:"sessionId" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.broadcasts.End(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}

func (h *BroadcastHandler) AddStream(c *gin.Context) {
	var req struct {
		RoomName domain.RoomName `json:"roomName" binding:"required"`
		StreamID domain.StreamID `json:"streamId" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.broadcasts.AddStream(c.Request.Context(), req.RoomName, req.StreamID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, "okay")
}

func (h *BroadcastHandler) ReportAudioLevel(c *gin.Context) {
	var req struct {
		SessionID domain.SessionID `json:"sessionId" binding:"required"`
		StreamID  domain.StreamID  `json:"streamId" binding:"required"`
		Level     float64          `json:"level" binding:"min=0,max=1"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.speakers.ReportLevel(c.Request.Context(), req.SessionID, req.StreamID, req.Level)
	c.JSON(http.StatusOK, gin.H{})
}

func (h *BroadcastHandler) GetURL(c *gin.Context) {
	room := domain.RoomName(c.Param("room"))

	url, err := h.broadcasts.ActiveURL(c.Request.Context(), room)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.ErrNoBroadcastURL.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// respondError maps domain and application errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoSession),
		errors.Is(err, domain.ErrNoActiveBroadcast),
		errors.Is(err, domain.ErrRenderNotFound):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case pkgerrors.IsAppError(err):
		appErr := pkgerrors.GetAppError(err)
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

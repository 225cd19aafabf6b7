package http

import (
	"net/http"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type RenderHandler struct {
	renders ports.RenderService
}

func NewRenderHandler(renders ports.RenderService) *RenderHandler {
	return &RenderHandler{renders: renders}
}

func (h *RenderHandler) SetupRoutes(router *gin.Engine) {
	router.POST("/render", h.Create)
	router.GET("/render/stop/:id", h.Stop)
}

func (h *RenderHandler) Create(c *gin.Context) {
	var req struct {
		SessionID domain.SessionID `json:"sessionId" binding:"required"`
		RoomName  domain.RoomName  `json:"roomName" binding:"required"`
		BgChoice  string           `json:"bgChoice"`
		Round     bool             `json:"round"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.renders.Create(c.Request.Context(), req.SessionID, req.RoomName, req.BgChoice, req.Round)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": job.ID})
}

func (h *RenderHandler) Stop(c *gin.Context) {
	id := domain.RenderID(c.Param("id"))

	resp, err := h.renders.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}

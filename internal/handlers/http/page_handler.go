package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/validation"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the role-specific client pages with the room's
// credentials embedded, mirroring server-side rendered sample pages.
type PageHandler struct {
	credentials ports.CredentialService
}

func NewPageHandler(credentials ports.CredentialService) *PageHandler {
	return &PageHandler{credentials: credentials}
}

func (h *PageHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/viewer")
	})
	router.GET("/host", h.page("host.html", domain.RoleHost))
	router.GET("/guest", h.page("guest.html", domain.RoleGuest))
	router.GET("/viewer", h.page("viewer.html", domain.RoleViewer))
	router.GET("/hls-viewer", h.page("hls_viewer.html", domain.RoleViewer))
	router.GET("/ec", h.page("ec.html", domain.RoleViewer))
}

func (h *PageHandler) page(templateName string, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomName := c.DefaultQuery("room", "main")
		if err := validation.ValidateRoomName(roomName); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		room := domain.RoomName(roomName)

		creds, err := h.credentials.GetCredentials(c.Request.Context(), role, room)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		payload, err := json.Marshal(creds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.HTML(http.StatusOK, templateName, gin.H{
			"Room":        string(room),
			"Role":        string(role),
			"Credentials": template.JS(payload),
			"Background":  c.Query("bg"),
			"Round":       c.Query("round") == "true",
		})
	}
}

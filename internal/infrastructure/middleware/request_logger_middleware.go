package middleware

import (
	"context"
	"time"

	"stagecast/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLoggerMiddleware assigns a request id and logs every request with
// its room/session context when present.
func RequestLoggerMiddleware(zapLogger *zap.Logger) gin.HandlerFunc {
	ctxLogger := logger.NewContextLogger(zapLogger)

	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		ctx := context.WithValue(c.Request.Context(), "request_id", requestID)
		if room := c.Query("room"); room != "" {
			ctx = context.WithValue(ctx, "room", room)
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		ctxLogger.LogRequest(c.Request.Context(), c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Milliseconds())
	}
}

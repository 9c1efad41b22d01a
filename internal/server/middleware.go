package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/venskies/flightwatch/pkg/log/ctxlogger"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

// RequestLogging tags every request with an id and emits one structured
// line per request.
func RequestLogging(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		ctx := ctxlogger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		ctxlogger.WithContext(ctx, base).Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// CronAuth guards the trigger endpoints with a shared bearer token. An
// unset secret locks the endpoints rather than opening them.
func (s *Server) CronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || s.cfg.CronSecret == "" || token != s.cfg.CronSecret {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

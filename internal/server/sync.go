package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Sync triggers one reconciliation pass. With no query parameter it walks
// the tracked airport set; airport= or flight= narrows it to one target.
// The two parameters are mutually exclusive.
func (s *Server) Sync(c *gin.Context) {
	airport := strings.ToUpper(strings.TrimSpace(c.Query("airport")))
	flight := strings.ToUpper(strings.TrimSpace(c.Query("flight")))

	if airport != "" && flight != "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	switch {
	case airport != "":
		result, err := s.reconcileSvc.SyncAirport(ctx, airport)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	case flight != "":
		result, err := s.reconcileSvc.SyncFlight(ctx, flight)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	default:
		result, err := s.reconcileSvc.SyncTracked(ctx)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cleanup runs the staleness rules and the ghost check, reporting per-rule
// counts.
func (s *Server) Cleanup(c *gin.Context) {
	report, err := s.resolverSvc.Cleanup(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EnrichAircraft runs one bounded registration-resolution batch and
// reports the per-record outcomes.
func (s *Server) EnrichAircraft(c *gin.Context) {
	report, err := s.enrichSvc.Run(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

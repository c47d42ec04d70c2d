package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleGetUsage(c *gin.Context) {
	usage, err := s.quotaSvc.CurrentUsage(c.Request.Context(), subjectID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

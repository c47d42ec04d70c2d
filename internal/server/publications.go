package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type schedulePublicationRequest struct {
	PublishAt time.Time `json:"publish_at" binding:"required"`
}

func (s *Server) handleSchedulePublication(c *gin.Context) {
	postID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req schedulePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pub, err := s.publicationSvc.Schedule(c.Request.Context(), subjectID(c), postID, req.PublishAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pub)
}

func (s *Server) handleListPublications(c *gin.Context) {
	pubs, err := s.publicationSvc.List(c.Request.Context(), subjectID(c), 100)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"publications": pubs})
}

func (s *Server) handleCancelPublication(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.publicationSvc.Cancel(c.Request.Context(), subjectID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	"go.uber.org/zap"
)

type generatePostRequest struct {
	Topic string `json:"topic" binding:"required"`
	Tone  string `json:"tone"`
}

type generatePostResponse struct {
	PostID string `json:"post_id"`
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// handleGeneratePost admits one generation: the quota gate runs here,
// before any row is written, so over-quota callers get a 429 and no
// draft or job is created.
func (s *Server) handleGeneratePost(c *gin.Context) {
	var req generatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	subject := subjectID(c)
	ctx := c.Request.Context()

	if err := s.quotaSvc.CheckAndReserve(ctx, subject); err != nil {
		AbortWithError(c, err)
		return
	}

	post, err := s.postSvc.CreateDraft(ctx, subject, req.Topic, req.Tone)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	job, err := s.jobSvc.Enqueue(ctx, jobdomain.KindGenerate, subject,
		jobdomain.GeneratePayload{PostID: post.ID, Topic: post.Topic, Tone: post.Tone},
		jobdomain.EnqueueOptions{})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("generation admitted",
		zap.String("subject_id", subject),
		zap.Int64("post_id", post.ID.Int64()),
		zap.Int64("job_id", job.ID.Int64()),
	)
	c.JSON(http.StatusAccepted, generatePostResponse{
		PostID: post.ID.String(),
		JobID:  job.ID.String(),
		Status: "queued",
	})
}

func (s *Server) handleListPosts(c *gin.Context) {
	posts, err := s.postSvc.List(c.Request.Context(), subjectID(c), 100)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleGetPost(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	post, err := s.postSvc.GetOwned(c.Request.Context(), subjectID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(raw)
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/scriptly/internal/billing/domain"
	"github.com/smallbiznis/scriptly/internal/billing/stripe"
	"github.com/smallbiznis/scriptly/internal/identity"
	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	quotadomain "github.com/smallbiznis/scriptly/internal/quota/domain"
	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware is the single place domain errors become
// HTTP responses. Handlers attach errors with AbortWithError and never
// pick status codes themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, quotadomain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "quota_exceeded",
			Message: err.Error(),
		}
	case errors.Is(err, identity.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, postdomain.ErrPostNotFound),
		errors.Is(err, publicationdomain.ErrPublicationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, postdomain.ErrInvalidTopic),
		errors.Is(err, publicationdomain.ErrPublishAtNotFuture),
		errors.Is(err, subscriptiondomain.ErrMissingSubject),
		errors.Is(err, billingdomain.ErrMissingSubject),
		errors.Is(err, stripe.ErrInvalidSignature),
		errors.Is(err, stripe.ErrInvalidPayload):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog labels request errors for the access log.
func classifyErrorForLog(err error) string {
	status, payload := mapError(err)
	if status >= 500 {
		return "internal"
	}
	return payload.Type
}

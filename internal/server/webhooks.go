package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scriptly/internal/billing/stripe"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// handleStripeWebhook verifies the provider signature before anything
// else touches the payload. An unverifiable delivery gets a 400 and is
// never handed to the reconciler.
func (s *Server) handleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := stripe.VerifySignature(payload, c.GetHeader("Stripe-Signature"), s.cfg.StripeWebhookSecret, s.clock.Now()); err != nil {
		s.log.Warn("webhook signature rejected", zap.Error(err))
		AbortWithError(c, err)
		return
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.reconciler.Apply(c.Request.Context(), event)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "result": string(result)})
}

package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"

	"transit/internal/logger"
	"transit/internal/service"
)

// maxWebhookBody bounds how much of a webhook request body is read.
const maxWebhookBody = 65536

// WebhookHandler receives payment-completed events from the checkout
// provider and hands verified ones to settlement.
type WebhookHandler struct {
	settlement    *service.SettlementService
	webhookSecret string
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(settlement *service.SettlementService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		settlement:    settlement,
		webhookSecret: webhookSecret,
	}
}

// HandlePaymentEvent handles POST /v1/webhooks/payment
//
// The response code speaks to the provider's retry loop: 2xx acknowledges
// the event (settled, already settled, or terminally failed), 400 rejects
// a bad signature, and 5xx asks for a redelivery.
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read request body"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.Get().Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
		return
	}

	if event.Type != "checkout.session.completed" {
		// Not a settlement trigger; acknowledge and move on.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed event payload"})
		return
	}

	amountPaid := float64(session.AmountTotal) / 100

	err = h.settlement.Settle(c.Request.Context(), session.ID, amountPaid)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case service.IsTerminalSettlementError(err):
		// Retrying cannot change the outcome; stop the redeliveries.
		logger.Get().Warn("settlement terminally failed",
			zap.String("session_id", session.ID),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true, "settled": false})
	default:
		// Transient: answer 5xx so the provider redelivers.
		logger.Get().Error("settlement error, awaiting redelivery",
			zap.String("session_id", session.ID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "settlement failed"})
	}
}

// Package handler exposes the payment gateway webhook endpoint.
package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76/webhook"

	"leadmarket_backend/internal/billing/service"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/logger"
)

// maxWebhookBody caps the payload size read from the gateway.
const maxWebhookBody = 64 << 10

// signatureTolerance rejects replayed webhook deliveries older than this.
const signatureTolerance = 5 * time.Minute

// Handler verifies and dispatches payment gateway webhooks.
type Handler struct {
	svc           *service.Service
	webhookSecret string
	log           *logger.Logger
}

// NewHandler creates the billing webhook handler.
func NewHandler(svc *service.Service, webhookSecret string, log *logger.Logger) *Handler {
	return &Handler{svc: svc, webhookSecret: webhookSecret, log: log}
}

// HandleStripeWebhook receives a gateway event, verifies its signature and
// hands it to the billing service. Duplicate deliveries are acknowledged with
// 200 so the gateway stops retrying them.
func (h *Handler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read request body", nil)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing signature header", nil)
		return
	}

	event, err := webhook.ConstructEventWithTolerance(payload, signature, h.webhookSecret, signatureTolerance)
	if err != nil {
		h.log.Warn("webhook signature verification failed", "error", err.Error())
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook signature", nil)
		return
	}

	if err := h.svc.HandleEvent(c.Request.Context(), event); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			// Already processed on an earlier delivery.
			httpkit.OK(c, gin.H{"received": true, "duplicate": true})
			return
		}
		h.log.Error("webhook processing failed", "eventId", event.ID, "type", event.Type, "error", err.Error())
		if apperr.Is(err, apperr.KindBadRequest) || apperr.Is(err, apperr.KindValidation) {
			httpkit.HandleError(c, err)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "failed to process event", nil)
		return
	}

	httpkit.OK(c, gin.H{"received": true})
}

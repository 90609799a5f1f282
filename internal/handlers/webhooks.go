package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"pawpop-backend/internal/metrics"
	"pawpop-backend/internal/models"
	"pawpop-backend/internal/payments"
	"pawpop-backend/internal/printify"
	"pawpop-backend/internal/queue"
	"pawpop-backend/internal/services"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	stripe         *payments.WebhookVerifier
	printifySecret string
	tasks          queue.Enqueuer
	orders         OrderOperations
	metrics        *metrics.Registry
	logger         *slog.Logger
}

func NewWebhookHandler(stripe *payments.WebhookVerifier, printifySecret string, tasks queue.Enqueuer, orders OrderOperations, m *metrics.Registry, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		stripe:         stripe,
		printifySecret: printifySecret,
		tasks:          tasks,
		orders:         orders,
		metrics:        m,
		logger:         logger,
	}
}

// Stripe godoc
// @Summary     Stripe webhook endpoint
// @Description Verifies the Stripe signature and queues paid checkout sessions for fulfillment. Other events are acknowledged and ignored.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Stripe signature"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read request body", Message: err.Error()})
		return
	}

	event, err := h.stripe.Parse(body, c.GetHeader(payments.SignatureHeader))
	if err != nil {
		h.metrics.WebhookReceived("stripe", "invalid")
		msg := "failed to parse event"
		if errors.Is(err, payments.ErrInvalidSignature) {
			msg = "invalid signature"
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg, Message: err.Error()})
		return
	}

	if !event.IsCheckoutCompleted() {
		h.metrics.WebhookReceived("stripe", "ignored")
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
		return
	}

	// Stripe retries on non-2xx, so a failed enqueue is reported as 500.
	if err := h.tasks.Enqueue(c.Request.Context(), queue.NewProcessPaidOrderTask(event.Session)); err != nil {
		h.metrics.WebhookReceived("stripe", "error")
		h.logger.Error("failed to queue paid order", "session_id", event.Session.ID, "event_id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to queue order", Message: err.Error()})
		return
	}

	h.metrics.WebhookReceived("stripe", "queued")
	h.logger.Info("queued paid order", "session_id", event.Session.ID, "event_id", event.ID)
	c.JSON(http.StatusOK, gin.H{"received": true, "handled": true})
}

// Printify godoc
// @Summary     Printify webhook endpoint
// @Description Receives order and shipment updates from Printify. The body is signed with HMAC-SHA256 using the shared webhook secret.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       X-Pfy-Signature header string true "sha256=<hex digest>"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /webhooks/printify [post]
func (h *WebhookHandler) Printify(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read request body", Message: err.Error()})
		return
	}

	if !printify.VerifySignature(h.printifySecret, body, c.GetHeader(printify.SignatureHeader)) {
		h.metrics.WebhookReceived("printify", "invalid")
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid signature"})
		return
	}

	var event printify.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.metrics.WebhookReceived("printify", "invalid")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to parse event", Message: err.Error()})
		return
	}

	status := providerStatusForEvent(&event)
	if status == "" || event.Resource.ID == "" {
		h.metrics.WebhookReceived("printify", "ignored")
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
		return
	}

	err = h.orders.ApplyProviderStatus(c.Request.Context(), event.Resource.ID, status)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		// Orders created outside this service.
		h.metrics.WebhookReceived("printify", "ignored")
		h.logger.Warn("printify event for unknown order", "printify_order_id", event.Resource.ID, "type", event.Type)
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
	case err != nil:
		h.metrics.WebhookReceived("printify", "error")
		h.logger.Error("failed to apply printify status", "printify_order_id", event.Resource.ID, "status", status, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update order", Message: err.Error()})
	default:
		h.metrics.WebhookReceived("printify", "applied")
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": true})
	}
}

func providerStatusForEvent(event *printify.WebhookEvent) string {
	switch event.Type {
	case "order:updated":
		return event.Resource.Data.Status
	case "order:sent-to-production":
		return "in-production"
	case "order:shipment:created":
		return "shipped"
	case "order:shipment:delivered":
		return "delivered"
	default:
		return ""
	}
}

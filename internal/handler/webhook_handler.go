package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalbite/wearable-sync/internal/dto"
	"github.com/vitalbite/wearable-sync/internal/service"
	"go.uber.org/zap"
)

// SignatureHeader is the header the aggregation provider signs request bodies into
const SignatureHeader = "terra-signature"

// WebhookHandler handles inbound webhooks from the aggregation provider
type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookService service.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// Handle processes one inbound webhook
// @Summary Receive a wearable data webhook
// @Description Verifies, classifies and persists one webhook from the aggregation provider
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /webhooks/terra [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: "failed to read request body",
		})
		return
	}

	outcome, err := h.webhookService.Process(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		if errors.Is(err, service.ErrMissingSignature) || errors.Is(err, service.ErrInvalidSignature) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "webhook signature verification failed",
			})
			return
		}

		// a persistence failure; the sender retries the whole webhook, which
		// is safe because merges are idempotent
		h.logger.Error("Webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "failed to persist webhook data",
		})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{
		Received: outcome.Received,
		Updated:  outcome.Updated,
		Items:    outcome.Items,
		Reason:   outcome.Reason,
	})
}

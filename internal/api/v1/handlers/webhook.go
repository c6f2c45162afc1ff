package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/errors"
	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/api/v1/services"
	"voicescribe/internal/app/gateway/assemblyai"
)

// WebhookHandler receives provider callbacks
type WebhookHandler struct {
	service services.WebhookService
	secret  string
	logger  *slog.Logger
}

// NewWebhookHandler creates a webhook handler. When secret is set every
// callback must echo it in the assemblyai.WebhookHeader header.
func NewWebhookHandler(service services.WebhookService, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret, logger: logger}
}

// AssemblyAI handles POST /api/v1/webhooks/assemblyai
//
// @Summary AssemblyAI transcript status callback
// @Tags webhooks
// @Accept json
// @Produce json
// @Param payload body dto.WebhookPayload true "Callback"
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.APIError
// @Router /webhooks/assemblyai [post]
func (h *WebhookHandler) AssemblyAI(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(assemblyai.WebhookHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("webhook rejected", "client_ip", c.ClientIP(), "request_id", c.GetString(middleware.RequestIDKey))
			middleware.HandleError(c, errors.NewUnauthorizedError("invalid webhook secret"))
			return
		}
	}

	var payload dto.WebhookPayload
	if err := middleware.ValidateRequest(c, &payload); err != nil {
		middleware.HandleError(c, err)
		return
	}

	handled, err := h.service.HandleTranscriptUpdate(c.Request.Context(), payload.TranscriptID)
	if err != nil {
		// a non-2xx answer makes the provider deliver again
		h.logger.Error("webhook processing failed", "transcript_id", payload.TranscriptID, "error", err)
		middleware.HandleError(c, err)
		return
	}

	status := "processed"
	if !handled {
		status = "ignored"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

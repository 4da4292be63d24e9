package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	service "github.com/mamadbah2/coldstore/internal/service/whatsapp"
)

type verifyQuery struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

// WebhookHandler serves the chat command webhook and the operator send endpoint.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Verify echoes the subscription challenge when the verify token matches.
func (h *WebhookHandler) Verify(c *gin.Context) {
	var q verifyQuery
	_ = c.ShouldBindQuery(&q)

	challenge, err := h.svc.VerifyWebhookToken(q.Mode, q.Token, q.Challenge)
	if err != nil {
		h.logger.Warn("webhook verification rejected", zap.String("mode", q.Mode), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive runs the chat commands carried by a webhook callback.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		badRequest(c, "invalid payload")
		return
	}

	// Unacknowledged callbacks are redelivered, so failures are only logged.
	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("webhook commands failed", zap.Int("messages", countMessages(payload)), zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes an operator message to a chat recipient.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "to and message are required")
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("outbound message failed", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message", "code": "upstream"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

func countMessages(payload models.WebhookPayload) int {
	n := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			n += len(change.Value.Messages)
		}
	}
	return n
}

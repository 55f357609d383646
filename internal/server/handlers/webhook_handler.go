package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/domain/models"
	service "github.com/mamadbah2/salestracker/internal/service/whatsapp"
)

// replyTimeout bounds the report lookups and replies triggered by one callback.
const replyTimeout = 30 * time.Second

// WebhookHandler receives the owner's WhatsApp report commands.
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

type verifyQuery struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

// Verify echoes the subscription challenge when the verify token matches
// WHATSAPP_VERIFY_TOKEN.
func (h *WebhookHandler) Verify(c *gin.Context) {
	var q verifyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.String(http.StatusBadRequest, "invalid query")
		return
	}

	challenge, err := h.svc.VerifyWebhookToken(q.Mode, q.Token, q.Challenge)
	if err != nil {
		h.logger.Warn("webhook verification failed", zap.String("mode", q.Mode), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}

	h.logger.Info("webhook subscription verified")
	c.String(http.StatusOK, challenge)
}

// Receive answers the report commands carried by a callback. Delivery and
// read receipts carry no messages and are acknowledged without a reply.
// Once the body parses the callback is always acknowledged with 200, even if
// a reply could not be sent, so Meta does not redeliver it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	commands := countMessages(payload)
	if commands == 0 {
		h.logger.Debug("webhook callback without messages", zap.String("object", payload.Object))
		c.Status(http.StatusOK)
		return
	}

	// Replies go out even if Meta drops the connection first.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), replyTimeout)
	defer cancel()

	if err := h.svc.HandleWebhook(ctx, payload); err != nil {
		h.logger.Error("failed answering report commands", zap.Int("messages", commands), zap.Error(err))
	}

	c.Status(http.StatusOK)
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

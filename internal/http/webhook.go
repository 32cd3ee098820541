package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"contest-bot/internal/common/errors"
	"contest-bot/internal/common/middleware"
	"contest-bot/internal/platform/telegram"
)

type WebhookHandler struct {
	updates UpdateRouter
}

func NewWebhookHandler(updates UpdateRouter) *WebhookHandler {
	return &WebhookHandler{updates: updates}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhook", h.receive)
}

// Telegram повторяет доставку, пока не получит 2xx, поэтому отвечаем сразу:
// обработка идёт в диспетчере.
func (h *WebhookHandler) receive(c *gin.Context) {
	var upd telegram.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		middleware.SendError(c, errors.NewValidationError("update", "malformed JSON"))
		return
	}

	h.updates.Route(context.WithoutCancel(c.Request.Context()), upd)
	c.Status(http.StatusOK)
}

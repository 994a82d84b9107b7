package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davidgelis/whatsapp-ai-bot/internal/whatsapp"
)

// maxWebhookBody caps how much of an inbound payload is read. Anything
// past it is ignored rather than rejected, since the platform expects a
// 200 regardless.
const maxWebhookBody = 1 << 20

// Dispatcher runs the relay pipeline for one decoded inbound event.
type Dispatcher interface {
	Handle(ctx context.Context, evt whatsapp.Event)
}

// WebhookHandler terminates the platform webhook: the GET verification
// handshake and the POST event delivery.
type WebhookHandler struct {
	verifyToken string
	dispatcher  Dispatcher
	logger      *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, verifyToken string, dispatcher Dispatcher) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		dispatcher:  dispatcher,
		logger:      log.With(slog.String("handler", "webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/webhook", h.Verify)
	e.POST("/webhook", h.Receive)
}

// Verify answers the subscription handshake. The challenge is echoed back
// verbatim only when both the mode and the shared token match.
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.logger.Info("webhook verified")
		return c.String(http.StatusOK, challenge)
	}
	h.logger.Warn("webhook verification rejected", slog.String("mode", mode))
	return c.NoContent(http.StatusForbidden)
}

// Receive acknowledges an event delivery. The payload is decoded and handed
// to the relay pipeline on a detached context; the 200 never waits for it
// and never reflects its outcome. Payloads that do not carry a text message
// are acknowledged and dropped.
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("read webhook body failed", slog.Any("error", err))
		return c.NoContent(http.StatusOK)
	}

	evt, ok := whatsapp.DecodeEvent(body)
	if !ok {
		h.logger.Debug("webhook payload carried no text message")
		return c.NoContent(http.StatusOK)
	}

	go h.dispatcher.Handle(context.WithoutCancel(c.Request().Context()), evt)
	return c.NoContent(http.StatusOK)
}

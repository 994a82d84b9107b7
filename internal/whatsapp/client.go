package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DeliveryError wraps a failed reply send. One attempt per message; the
// relay logs it and moves on.
type DeliveryError struct {
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("whatsapp send failed: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("whatsapp send failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Text             sendText `json:"text"`
}

type sendText struct {
	Body string `json:"body"`
}

// Client sends outbound text messages through the WhatsApp Cloud API.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v15.0"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("client", "whatsapp")),
		baseURL:    baseURL,
	}
}

// Send posts a text reply to the recipient through the given phone number
// id, authenticated with the given token.
func (c *Client) Send(ctx context.Context, phoneNumberID, to, body, token string) error {
	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Text:             sendText{Body: body},
	})
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("send request failed",
			slog.String("phone_number_id", phoneNumberID),
			slog.Any("error", err),
		)
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Debug("send request rejected",
			slog.String("phone_number_id", phoneNumberID),
			slog.Int("status", resp.StatusCode),
		)
		return &DeliveryError{Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(detail)))}
	}
	return nil
}

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no API key is set. The relay treats
// this as the degraded no-reply mode rather than a failure.
var ErrNotConfigured = errors.New("openai api key not configured")

// ProviderError wraps a failed completion call: transport errors,
// non-success statuses and unparseable bodies all surface as one.
type ProviderError struct {
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("openai completion failed: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("openai completion failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client calls the chat-completions endpoint. One attempt per call; the
// only deadline is the HTTP client timeout.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string
	model      string
}

func NewClient(log *slog.Logger, apiKey, baseURL, model string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("client", "openai")),
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
	}
}

// Configured reports whether completion calls can be made at all.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Complete sends a system/user message pair and returns the first choice's
// reply text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
	})
	if err != nil {
		return "", &ProviderError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("completion request failed", slog.Any("error", err))
		return "", &ProviderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Debug("completion request rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.model),
		)
		return "", &ProviderError{Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(detail)))}
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ProviderError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Err: fmt.Errorf("response contains no choices")}
	}
	return parsed.Choices[0].Message.Content, nil
}

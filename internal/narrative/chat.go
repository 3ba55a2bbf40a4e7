package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
)

// ChatNarrator asks an OpenAI-compatible chat completions endpoint for the
// status text.
type ChatNarrator struct {
	http        *http.Client
	endpoint    string
	model       string
	apiKey      string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// NewChatNarrator creates a chat narrator. A nil httpClient gets one with
// the configured timeout.
func NewChatNarrator(cfg config.NarrativeConfig, httpClient *http.Client, logger *slog.Logger) *ChatNarrator {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &ChatNarrator{
		http:        httpClient,
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger.With(slog.String("component", "chat_narrator")),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Narrate implements Narrator.
func (c *ChatNarrator) Narrate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.NewUnavailableError("narrative API key is not set", nil)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: req.prompt()},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewNetworkError("failed to build chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.NewNetworkError("chat request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.NewNetworkError("failed to read chat response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewNetworkError(fmt.Sprintf("chat endpoint returned %d", resp.StatusCode), nil)
	}

	var decoded chatResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", apperrors.NewParsingError("failed to decode chat response", err)
	}
	if len(decoded.Choices) == 0 {
		return "", apperrors.NewParsingError("chat response has no choices", nil)
	}

	c.logger.InfoContext(ctx, "Narrative generated",
		slog.String("model", c.model),
		slog.Int("total_tokens", decoded.Usage.TotalTokens))
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

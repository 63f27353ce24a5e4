// Package summary is the HTTP client for the external summarization service.
// It speaks the chat-completions wire format and turns a conversation
// snapshot into a concise handoff briefing for the incoming agent.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rpggio/warmline/internal/domain/conversation"
)

// ErrUnavailable indicates the summarization service failed or returned an
// unusable response.
var ErrUnavailable = errors.New("summarization service unavailable")

const (
	systemPrompt = "Create a concise handoff summary for the next agent."

	// emptySummary is returned without a service call when the conversation
	// log has no entries; a fresh call has nothing to summarize.
	emptySummary = "No prior conversation context available."
)

// Config configures the summarization client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// Client produces call summaries via the chat-completions API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates a summarization client.
func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    cfg.HTTPClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize turns an ordered conversation snapshot into briefing text.
func (c *Client) Summarize(ctx context.Context, entries []conversation.Entry) (string, error) {
	if len(entries) == 0 {
		return emptySummary, nil
	}

	var transcript strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&transcript, "[%s] %s: %s\n", e.CreatedAt.Format("15:04:05"), e.Speaker, e.Text)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Summarize this call context for warm transfer:\n\n" + transcript.String()},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, rerr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if rerr != nil {
			return "", fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload chatResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrUnavailable)
	}
	text := strings.TrimSpace(payload.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: response missing summary text", ErrUnavailable)
	}
	return text, nil
}

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/match-sim/match-sim/sim"
)

// HTTPConfig configures an OpenAI-compatible chat-completions endpoint.
type HTTPConfig struct {
	BaseURL string // default https://api.openai.com/v1
	APIKey  string
	Model   string
	Timeout time.Duration // default 60s
}

// HTTP calls a remote chat-completions endpoint for each move. Every
// transport, status or decode failure is folded into the [Error] sentinel;
// nothing crosses this boundary as a Go error.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTP creates an HTTP adapter.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateMove sends the prompt and serialized history to the remote model
// and returns the raw completion text.
func (h *HTTP) GenerateMove(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	payload := chatRequest{
		Model: h.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Match history:\n" + SerializeHistory(history) + "\nYour move:"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Errorf("marshal request: %v", err)
	}

	url := strings.TrimRight(h.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Errorf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		logrus.Warnf("adapter: model call failed: %v", err)
		return Errorf("model call: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Errorf("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Errorf("model returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Errorf("decode response: %v", err)
	}
	if len(decoded.Choices) == 0 {
		return Errorf("model returned no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content)
}

var _ Adapter = (*HTTP)(nil)

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ErrStatusText is returned as the completion when the endpoint answers with
// a non-success status.
const ErrStatusText = "Error connecting to Ollama."

// Config controls the generate endpoint.
type Config struct {
	URL   string
	Model string
}

// Client implements ports.CompletionClient against Ollama's /api/generate.
type Client struct {
	HTTPClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434/api/generate"
	}
	if cfg.Model == "" {
		cfg.Model = "llama"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTPClient: &http.Client{},
		cfg:        cfg,
		logger:     logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// Complete streams a generation for prompt. Transport and protocol failures
// are rendered into the returned text.
func (c *Client) Complete(ctx context.Context, prompt string) string {
	body, err := json.Marshal(generateRequest{Model: c.cfg.Model, Prompt: prompt})
	if err != nil {
		return queryError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return queryError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return queryError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("completion endpoint rejected request", "status", resp.StatusCode)
		return ErrStatusText
	}

	text, err := Assemble(resp.Body)
	if err != nil {
		return queryError(err)
	}
	return text
}

func queryError(err error) string {
	return fmt.Sprintf("Error querying Ollama: %v", err)
}

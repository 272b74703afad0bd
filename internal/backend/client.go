// Package backend implements the HTTP clients for the OMEGA services: chat
// sessions, turn orchestration and negotiation. All three share one base URL
// and bearer token; the packages consuming them see narrow interfaces, not
// this client.
package backend

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

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// Config holds configuration for the OMEGA API client.
type Config struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
}

// DefaultConfig returns default client configuration. The long timeout is
// deliberate: one orchestrate call can fan out to several LLM-backed agents.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		RequestTimeout: 120 * time.Second,
	}
}

// Client is an HTTP client to the OMEGA API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the OMEGA API at cfg.BaseURL.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

// Health checks that the OMEGA API is reachable.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/", nil, &body); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// do runs one JSON round-trip. Network failures and non-2xx statuses map to
// domain.ErrTransport; a 2xx body that does not decode maps to
// domain.ErrProtocol.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "path", path, "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readErrorDetail(resp.Body)
		return fmt.Errorf("%w: %s %s returned %d: %s", domain.ErrTransport, method, path, resp.StatusCode, detail)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s response: %v", domain.ErrProtocol, method, path, err)
	}
	return nil
}

// readErrorDetail extracts the FastAPI {"detail": ...} message when present,
// falling back to the raw (truncated) body.
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 2048))
	if err != nil || len(raw) == 0 {
		return "no detail"
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(raw)
}

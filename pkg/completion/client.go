// Package completion is a client for the streaming completion-messages API.
package completion

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

	"github.com/papercomputeco/aish/pkg/logger"
)

const (
	completionPath = "/completion-messages"

	// ResponseModeStreaming asks the API for a server-sent event stream.
	ResponseModeStreaming = "streaming"

	// maxErrorBody bounds how much of a failed response is kept in a StatusError.
	maxErrorBody = 64 * 1024
)

// ErrMissingKey is returned by NewClient when no API key is configured.
var ErrMissingKey = errors.New("missing API key (set api.key, AISH_API_KEY or --key)")

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("completion API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion API returned status %d: %s", e.StatusCode, body)
}

// Request is the body of a completion-messages call.
type Request struct {
	Inputs       Inputs `json:"inputs"`
	ResponseMode string `json:"response_mode"`
	User         string `json:"user"`
}

// Inputs carries the prompt text.
type Inputs struct {
	Query string `json:"query"`
}

// Config configures a Client.
type Config struct {
	// Endpoint is the API base URL, e.g. https://api.dify.ai/v1.
	Endpoint string

	// Key is sent as a bearer token.
	Key string

	// User identifies the caller to the API.
	User string

	// HTTPClient defaults to a client without a timeout; bound requests
	// through the context instead.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client sends prompts and returns the raw event stream.
type Client struct {
	url    string
	key    string
	user   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Key == "" {
		return nil, ErrMissingKey
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("missing API endpoint")
	}

	c := &Client{
		url:    strings.TrimRight(cfg.Endpoint, "/") + completionPath,
		key:    cfg.Key,
		user:   cfg.User,
		http:   cfg.HTTPClient,
		logger: cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	return c, nil
}

// Stream posts query and returns the response body, an event stream to be
// decoded by the caller. The caller must close it. Cancelling ctx aborts the
// request and any read in flight.
func (c *Client) Stream(ctx context.Context, query string) (io.ReadCloser, error) {
	body, err := json.Marshal(Request{
		Inputs:       Inputs{Query: query},
		ResponseMode: ResponseModeStreaming,
		User:         c.user,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.key)

	c.logger.Debug("sending completion request",
		"url", c.url,
		"query_bytes", len(query),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending completion request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Debug("completion stream opened",
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
	)
	return resp.Body, nil
}

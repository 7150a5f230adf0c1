// Package webhook forwards funnel events to external automation endpoints.
// Delivery is best effort: a failed post is logged and never blocks the funnel.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadfunnel_backend/platform/logger"
)

// Client posts JSON payloads to webhook targets.
type Client struct {
	http *http.Client
	log  *logger.Logger
}

func NewClient(log *logger.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

// Post sends the payload to the target URL. Responses >= 400 are errors.
func (c *Client) Post(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook target returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

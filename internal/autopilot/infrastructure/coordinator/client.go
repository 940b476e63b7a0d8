// Package coordinator notifies the remote autopilot-execution service of
// toggle changes. The tenant store remains the source of truth; the
// Coordinator holds a cache that is allowed to lag, so every call here is
// best-effort and at-most-once.
package coordinator

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

	"github.com/cerberoai/cerbero/internal/autopilot/domain"
	"github.com/sony/gobreaker/v2"
)

const notifySource = "cerbero-web"

// Config holds the Coordinator endpoint settings.
type Config struct {
	BaseURL     string
	InternalKey string
	Timeout     time.Duration
}

// Client delivers autopilot toggle notifications to the Coordinator.
type Client struct {
	baseURL     string
	internalKey string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[int]
	logger      *slog.Logger
}

// NewClient creates a Coordinator client. An empty base URL produces a client
// whose notifies are skipped with a warning, so the toggle service can run
// standalone.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "coordinator",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		internalKey: cfg.InternalKey,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		breaker:     gobreaker.NewCircuitBreaker[int](settings),
		logger:      logger,
	}
}

// Notify tells the Coordinator the tenant's autopilot flag changed. Network
// errors, timeouts, non-2xx responses and an open breaker are all logged and
// swallowed; the persisted flag is never rolled back.
func (c *Client) Notify(ctx context.Context, email string, enabled bool) domain.NotifyResult {
	if c.baseURL == "" {
		c.logger.Warn("coordinator base URL not configured, skipping notify",
			"email", email,
			"enabled", enabled,
		)
		return domain.NotifyResult{Delivered: false, Reason: "not configured"}
	}

	status, err := c.breaker.Execute(func() (int, error) {
		return c.post(ctx, email, enabled)
	})
	if err != nil {
		c.logger.Error("coordinator notify failed",
			"email", email,
			"enabled", enabled,
			"error", err,
		)
		return domain.NotifyResult{Delivered: false, Reason: err.Error()}
	}

	c.logger.Info("coordinator notified",
		"email", email,
		"enabled", enabled,
		"status", status,
	)
	return domain.NotifyResult{Delivered: true}
}

func (c *Client) post(ctx context.Context, email string, enabled bool) (int, error) {
	payload, err := json.Marshal(map[string]any{
		"user_id": email,
		"enabled": enabled,
		"source":  notifySource,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal notify payload: %w", err)
	}

	url := c.baseURL + "/v1/autopilot/toggle"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.internalKey != "" {
		req.Header.Set("X-Internal-Key", c.internalKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post coordinator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("coordinator returned %d: %s", resp.StatusCode, string(body))
	}

	return resp.StatusCode, nil
}

var _ domain.Notifier = (*Client)(nil)

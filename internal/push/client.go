package push

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/wallpaperhub/wallpaper-server/internal/ratelimit"
)

const (
	// The gateway allows 600 notifications per second per project; at
	// MaxBatchSize per request that is 6 requests per second.
	defaultRPS   = 6.0
	defaultBurst = 6

	defaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Config configures the gateway client.
type Config struct {
	URL         string
	AccessToken string
	Timeout     time.Duration
}

// Client is a rate-limited Expo push API client.
type Client struct {
	http        *http.Client
	limiter     *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
	url         string
	host        string
	accessToken string
}

// New creates a gateway client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid push gateway URL %q", cfg.URL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http:        &http.Client{Timeout: timeout},
		limiter:     ratelimit.New(defaultRPS, defaultBurst),
		logger:      logger,
		url:         u.String(),
		host:        u.Host,
		accessToken: cfg.AccessToken,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

type sendResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send submits one batch and returns one ticket per message, in order.
// A non-nil error means the whole batch failed; per-device failures are
// reported in the tickets.
func (c *Client) Send(ctx context.Context, batch []Message) ([]Ticket, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if len(batch) > MaxBatchSize {
		return nil, &Error{Op: "send", Size: len(batch), Err: ErrTooLarge}
	}

	if err := c.limiter.Wait(ctx, c.host); err != nil {
		return nil, &Error{Op: "send", Size: len(batch), Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	tickets, err := c.doSend(ctx, batch)
	if err != nil {
		return nil, &Error{Op: "send", Size: len(batch), Err: err}
	}
	return tickets, nil
}

func (c *Client) doSend(ctx context.Context, batch []Message) ([]Ticket, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "WallpaperHub/1.0")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	c.logger.Debug("push request", "messages", len(batch))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, bytes.TrimSpace(body))
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("gateway error %s: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
	}
	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("%w: got %d, sent %d", ErrMismatch, len(parsed.Data), len(batch))
	}
	return parsed.Data, nil
}

// Package daemonclient talks to the HTTP endpoints of a running daemon.
package daemonclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gopkg.in/resty.v1"

	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/daemon"
	"github.com/leefowlercu/statusmirror/internal/version"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 5 * time.Second

// Client provides a shared HTTP client for daemon endpoints.
type Client struct {
	baseURL string
	http    *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// WithAddress overrides the host:port derived from configuration.
func WithAddress(addr string) Option {
	return func(c *Client) {
		if addr != "" {
			c.baseURL = "http://" + addr
		}
	}
}

// New creates a Client using daemon configuration.
func New(cfg config.DaemonConfig, opts ...Option) *Client {
	client := &Client{
		baseURL: ResolveBaseURL(cfg),
		http:    resty.New().SetTimeout(DefaultTimeout).SetHeader("User-Agent", version.UserAgent()),
	}

	for _, opt := range opts {
		opt(client)
	}

	client.http.SetHostURL(client.baseURL)
	return client
}

// BaseURL returns the daemon URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveBaseURL builds the daemon base URL from config.
func ResolveBaseURL(cfg config.DaemonConfig) string {
	return "http://" + net.JoinHostPort(NormalizeBind(cfg.HTTPBind), strconv.Itoa(cfg.HTTPPort))
}

// NormalizeBind maps wildcard binds to loopback for local clients.
func NormalizeBind(bind string) string {
	switch bind {
	case "", "0.0.0.0":
		return "127.0.0.1"
	case "::", "[::]":
		return "::1"
	}
	return strings.Trim(bind, "[]")
}

// Ready fetches /readyz. A daemon that is still starting answers 503 with
// a full document, which is returned without error.
func (c *Client) Ready(ctx context.Context) (*daemon.HealthStatus, error) {
	var status daemon.HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", &status, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	return &status, nil
}

// Mappings fetches the mapping the reconciliation loop is running on.
func (c *Client) Mappings(ctx context.Context) (*daemon.MappingsResponse, error) {
	var result daemon.MappingsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/mappings", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TriggerSync asks the daemon to sync the topology now.
func (c *Client) TriggerSync(ctx context.Context) (*daemon.SyncResponse, error) {
	var result daemon.SyncResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sync", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doJSON decodes the response body into out for 2xx responses and for any
// of the extra accepted status codes.
func (c *Client) doJSON(ctx context.Context, method, path string, out any, accept ...int) error {
	resp, err := c.http.R().SetContext(ctx).Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon at %s; %w", c.baseURL, err)
	}

	code := resp.StatusCode()
	ok := code >= 200 && code < 300
	for _, a := range accept {
		ok = ok || code == a
	}
	if !ok {
		var errResp errorResponse
		if decodeErr := json.Unmarshal(resp.Body(), &errResp); decodeErr == nil && errResp.Error != "" {
			return fmt.Errorf("daemon request failed; %s", errResp.Error)
		}
		return fmt.Errorf("daemon request failed; status %d", code)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse response; %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// ABOUTME: HTTP client for the remote authority (introspection and check endpoints)
// ABOUTME: Owns endpoint configuration, timeouts, and raw request/response plumbing

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Default authority endpoints, each independently overridable via config.
const (
	DefaultIntrospectURL = "http://core-service:3000/auth/introspect"
	DefaultPermissionURL = "http://core-service:3000/auth/check-permission"
	DefaultRoleURL       = "http://core-service:3000/auth/check-role"
)

// defaultTimeout bounds each outbound call when no timeout is configured.
// A finite timeout is a correctness requirement: an unbounded call under
// authority slowness exhausts request handlers.
const defaultTimeout = 5 * time.Second

// AuthorityConfig configures the remote authority client. Zero values fall
// back to the defaults above.
type AuthorityConfig struct {
	IntrospectURL string
	PermissionURL string
	RoleURL       string
	Timeout       time.Duration
}

// Client talks to the authority. It is stateless and safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	permissionURL string
	roleURL       string
	logger        *slog.Logger
}

// NewClient creates an authority client from cfg, applying defaults for any
// unset field.
func NewClient(cfg AuthorityConfig) *Client {
	if cfg.IntrospectURL == "" {
		cfg.IntrospectURL = DefaultIntrospectURL
	}
	if cfg.PermissionURL == "" {
		cfg.PermissionURL = DefaultPermissionURL
	}
	if cfg.RoleURL == "" {
		cfg.RoleURL = DefaultRoleURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		introspectURL: cfg.IntrospectURL,
		permissionURL: cfg.PermissionURL,
		roleURL:       cfg.RoleURL,
		logger:        slog.Default().With("component", "authority"),
	}
}

// postJSON sends body as JSON to url and returns the response status and raw
// body. bearer, when non-empty, is forwarded as an Authorization header.
// A non-nil error means the call failed at the transport layer (connection
// refused, timeout, context cancellation); HTTP error statuses are returned
// to the caller for classification, not turned into errors here.
func (c *Client) postJSON(ctx context.Context, url, bearer string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearerPrefix+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("authority call failed", "url", url, "error", err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

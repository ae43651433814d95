// ABOUTME: Token validator orchestrating cache lookup, remote introspection, and User construction
// ABOUTME: One outbound call per uncached validation; successful results are cached for 30s

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// introspectRequest is the introspection call payload.
type introspectRequest struct {
	Token string `json:"token"`
}

// introspectResponse is the subset of the introspection response we consume.
type introspectResponse struct {
	Active      bool     `json:"active"`
	Sub         string   `json:"sub"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Validator turns raw bearer tokens into authenticated Users by way of the
// authority's introspection endpoint, consulting the cache first.
type Validator struct {
	client *Client
	cache  TokenCache
	logger *slog.Logger
}

// NewValidator creates a Validator. cache may be nil to disable caching
// outright (distinct from development-mode bypass, which is the cache's own
// concern).
func NewValidator(client *Client, cache TokenCache, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		client: client,
		cache:  cache,
		logger: logger.With("component", "validator"),
	}
}

// Validate checks token against the authority and returns the authenticated
// User. A cache hit returns immediately with no network call. Failures are
// classified: ErrAuthorityUnavailable for transport faults, timeouts and 5xx;
// ErrInvalidCredential for everything the authority rejected.
func (v *Validator) Validate(ctx context.Context, token string) (*User, error) {
	if v.cache != nil {
		if u, ok := v.cache.Get(ctx, token); ok {
			v.logger.Debug("introspection cache hit", "subject", u.Subject)
			return u, nil
		}
	}

	status, body, err := v.client.postJSON(ctx, v.client.introspectURL, "", introspectRequest{Token: token})
	if err := classify(callIntrospect, status, err); err != nil {
		return nil, err
	}

	var resp introspectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: unreadable introspection response", ErrInvalidCredential)
	}
	if !resp.Active {
		return nil, fmt.Errorf("%w: token is not active", ErrInvalidCredential)
	}
	if resp.Sub == "" {
		// An active token without a subject is not a principal we can act as.
		return nil, fmt.Errorf("%w: introspection returned no subject", ErrInvalidCredential)
	}

	user := &User{
		Subject:     resp.Sub,
		Role:        resp.Role,
		Permissions: resp.Permissions,
		Credential:  token,
	}

	if v.cache != nil {
		v.cache.Put(ctx, token, user)
	}
	v.logger.Debug("token validated", "subject", user.Subject)
	return user, nil
}

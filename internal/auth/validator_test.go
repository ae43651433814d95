// ABOUTME: Tests for the token validator against a stubbed authority
// ABOUTME: Covers caching, development-mode bypass, and every failure classification

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// stubAuthority runs an httptest server whose introspection endpoint responds
// per respond, counting calls.
func stubAuthority(t *testing.T, respond func(w http.ResponseWriter, body map[string]any)) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		respond(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(AuthorityConfig{
		IntrospectURL: srv.URL + "/auth/introspect",
		PermissionURL: srv.URL + "/auth/check-permission",
		RoleURL:       srv.URL + "/auth/check-role",
	}), &calls
}

func activeResponse(w http.ResponseWriter, body map[string]any) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"active":      true,
		"sub":         "u1",
		"role":        "editor",
		"permissions": []string{"doc:read", "doc:write"},
	})
}

func TestValidator_Success(t *testing.T) {
	client, _ := stubAuthority(t, activeResponse)
	v := NewValidator(client, nil, nil)

	user, err := v.Validate(context.Background(), "T1")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if user.Subject != "u1" {
		t.Errorf("expected subject 'u1', got %q", user.Subject)
	}
	if user.Role != "editor" {
		t.Errorf("expected role 'editor', got %q", user.Role)
	}
	if len(user.Permissions) != 2 || user.Permissions[0] != "doc:read" {
		t.Errorf("unexpected permissions: %v", user.Permissions)
	}
	if user.Credential != "T1" {
		t.Errorf("user must retain the credential it was validated with, got %q", user.Credential)
	}
}

func TestValidator_SendsTokenInBody(t *testing.T) {
	var gotToken string
	client, _ := stubAuthority(t, func(w http.ResponseWriter, body map[string]any) {
		gotToken, _ = body["token"].(string)
		activeResponse(w, body)
	})
	v := NewValidator(client, nil, nil)

	if _, err := v.Validate(context.Background(), "T1"); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if gotToken != "T1" {
		t.Errorf("expected token 'T1' in payload, got %q", gotToken)
	}
}

func TestValidator_CacheHitSkipsNetwork(t *testing.T) {
	client, calls := stubAuthority(t, activeResponse)
	v := NewValidator(client, NewMemoryCache(IntrospectionTTL, nil), nil)
	ctx := context.Background()

	first, err := v.Validate(ctx, "T1")
	if err != nil {
		t.Fatalf("first Validate() error = %v", err)
	}
	second, err := v.Validate(ctx, "T1")
	if err != nil {
		t.Fatalf("second Validate() error = %v", err)
	}

	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly one network call, got %d", n)
	}
	if first.Subject != "u1" || second.Subject != "u1" {
		t.Errorf("both validations must return the same subject: %q, %q", first.Subject, second.Subject)
	}
	if second.Credential != first.Credential {
		t.Errorf("cached user must carry the same credential")
	}
}

func TestValidator_DistinctTokensDistinctCalls(t *testing.T) {
	client, calls := stubAuthority(t, activeResponse)
	v := NewValidator(client, NewMemoryCache(IntrospectionTTL, nil), nil)
	ctx := context.Background()

	if _, err := v.Validate(ctx, "T1"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Validate(ctx, "T2"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected two network calls for two tokens, got %d", n)
	}
}

func TestValidator_DevelopmentModeNeverCaches(t *testing.T) {
	client, calls := stubAuthority(t, activeResponse)
	cache := NewMemoryCache(IntrospectionTTL, func() bool { return true })
	v := NewValidator(client, cache, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := v.Validate(ctx, "T1"); err != nil {
			t.Fatal(err)
		}
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected a network call per validation in development mode, got %d", n)
	}
}

func TestValidator_ExpiredEntryRevalidates(t *testing.T) {
	client, calls := stubAuthority(t, activeResponse)
	cache := NewMemoryCache(IntrospectionTTL, nil)
	now := time.Now()
	cache.now = func() time.Time { return now }
	v := NewValidator(client, cache, nil)
	ctx := context.Background()

	if _, err := v.Validate(ctx, "T1"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(IntrospectionTTL + time.Second)
	if _, err := v.Validate(ctx, "T1"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected revalidation after TTL, got %d calls", n)
	}
}

func TestValidator_InactiveToken(t *testing.T) {
	client, _ := stubAuthority(t, func(w http.ResponseWriter, body map[string]any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"active": false})
	})
	v := NewValidator(client, nil, nil)

	_, err := v.Validate(context.Background(), "T2")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestValidator_ActiveWithoutSubject(t *testing.T) {
	client, _ := stubAuthority(t, func(w http.ResponseWriter, body map[string]any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"active": true})
	})
	v := NewValidator(client, nil, nil)

	_, err := v.Validate(context.Background(), "T1")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestValidator_ClientError(t *testing.T) {
	client, _ := stubAuthority(t, func(w http.ResponseWriter, body map[string]any) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	v := NewValidator(client, nil, nil)

	_, err := v.Validate(context.Background(), "T1")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestValidator_ServerError(t *testing.T) {
	client, _ := stubAuthority(t, func(w http.ResponseWriter, body map[string]any) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	v := NewValidator(client, nil, nil)

	_, err := v.Validate(context.Background(), "T1")
	if !errors.Is(err, ErrAuthorityUnavailable) {
		t.Fatalf("expected ErrAuthorityUnavailable, got %v", err)
	}
}

func TestValidator_AuthorityUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	v := NewValidator(NewClient(AuthorityConfig{IntrospectURL: url}), nil, nil)

	_, err := v.Validate(context.Background(), "T1")
	if !errors.Is(err, ErrAuthorityUnavailable) {
		t.Fatalf("expected ErrAuthorityUnavailable, got %v", err)
	}
}

func TestValidator_FailuresAreNotCached(t *testing.T) {
	active := false
	client, calls := stubAuthority(t, func(w http.ResponseWriter, body map[string]any) {
		if active {
			activeResponse(w, body)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"active": false})
	})
	v := NewValidator(client, NewMemoryCache(IntrospectionTTL, nil), nil)
	ctx := context.Background()

	if _, err := v.Validate(ctx, "T1"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}

	active = true
	if _, err := v.Validate(ctx, "T1"); err != nil {
		t.Fatalf("expected success after token became active, got %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected both validations to hit the authority, got %d calls", n)
	}
}

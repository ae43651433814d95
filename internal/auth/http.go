// ABOUTME: HTTP middleware gluing extraction, validation, and access checks to routes
// ABOUTME: Routes declare requirements as plain Guard data; errors map to distinct status codes

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Guard declares, as plain data, what a route requires. Empty requirement
// lists mean no restriction of that kind: a zero Guard admits any
// authenticated user without calling the authority. When both Permissions
// and Roles are set, both checks must pass.
type Guard struct {
	Permissions []string
	Roles       []string
	Match       MatchMode // defaults to MatchAny when unset
}

// Decision is one authentication or authorization outcome, for audit.
type Decision struct {
	Subject string // empty when authentication itself failed
	Path    string
	OrgID   string
	Outcome string // "allowed", "denied", or the taxonomy error string
	At      time.Time
}

// DecisionRecorder receives auth decisions. Implementations must not block
// the request path; recording failures are the recorder's problem.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, d Decision)
}

// Middleware authenticates every request: it extracts a bearer credential,
// validates it, and attaches the resulting User to the request context.
// Unauthenticated requests never reach the wrapped handler. rec may be nil.
func Middleware(v *Validator, rec DecisionRecorder) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth-middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := ExtractToken(r)
			if !ok {
				record(rec, r, "", ErrMissingCredential.Error())
				writeError(w, ErrMissingCredential)
				return
			}

			user, err := v.Validate(r.Context(), token)
			if err != nil {
				logger.Debug("validation failed", "path", r.URL.Path, "error", err)
				record(rec, r, "", err.Error())
				writeError(w, err)
				return
			}

			record(rec, r, user.Subject, "allowed")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalMiddleware attempts authentication but lets unauthenticated
// requests through anonymously. Only an authority outage is surfaced;
// a missing or rejected credential just means no User on the context.
func OptionalMiddleware(v *Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := ExtractToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			user, err := v.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrAuthorityUnavailable) {
					writeError(w, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireGuard enforces g for the wrapped handler. Must be used after
// Middleware so a User is on the context. The decision scope is read from
// the request's x-org-id/x-workspace-id/x-object-id/x-object-type headers.
func RequireGuard(e *Evaluator, g Guard, rec DecisionRecorder) func(http.Handler) http.Handler {
	match := g.Match
	if match == "" {
		match = MatchAny
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := FromContext(r.Context())
			if user == nil {
				writeError(w, ErrMissingCredential)
				return
			}

			if len(g.Permissions) == 0 && len(g.Roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			scope := ScopeFromRequest(r)
			if err := evaluate(r.Context(), e, g, match, user, scope); err != nil {
				outcome := err.Error()
				if errors.Is(err, ErrAccessDenied) {
					outcome = "denied"
				}
				record(rec, r, user.Subject, outcome)
				writeError(w, err)
				return
			}

			record(rec, r, user.Subject, "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

// evaluate runs the guard's permission check, then its role check. A false
// decision from either becomes ErrAccessDenied.
func evaluate(ctx context.Context, e *Evaluator, g Guard, match MatchMode, user *User, scope Scope) error {
	if len(g.Permissions) > 0 {
		ok, err := e.HasPermission(ctx, user, g.Permissions, match, scope)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAccessDenied
		}
	}
	if len(g.Roles) > 0 {
		ok, err := e.HasRole(ctx, user, g.Roles, match, scope)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAccessDenied
		}
	}
	return nil
}

// record appends a decision to rec, if one is wired.
func record(rec DecisionRecorder, r *http.Request, subject, outcome string) {
	if rec == nil {
		return
	}
	rec.RecordDecision(r.Context(), Decision{
		Subject: subject,
		Path:    r.URL.Path,
		OrgID:   r.Header.Get(HeaderOrgID),
		Outcome: outcome,
		At:      time.Now().UTC(),
	})
}

// StatusFor maps a taxonomy error to its HTTP status code. Distinct outcomes
// stay distinguishable end to end.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrMissingContext):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthorityUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusForbidden // fail closed for anything unclassified
	}
}

// writeError writes the JSON error response for a taxonomy error.
func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	msg := err.Error()
	switch {
	case errors.Is(err, ErrMissingCredential):
		msg = ErrMissingCredential.Error()
	case errors.Is(err, ErrInvalidCredential):
		msg = ErrInvalidCredential.Error()
	case errors.Is(err, ErrAccessDenied):
		msg = ErrAccessDenied.Error()
	case errors.Is(err, ErrMissingContext):
		msg = ErrMissingContext.Error()
	case errors.Is(err, ErrAuthorityUnavailable):
		msg = ErrAuthorityUnavailable.Error()
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

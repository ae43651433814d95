// ABOUTME: Closed error taxonomy for authentication and authorization outcomes
// ABOUTME: Callers branch on these sentinels with errors.Is; nothing else escapes

package auth

import "errors"

// The five possible failure classes. Every error returned by this package
// wraps exactly one of them.
var (
	// ErrMissingCredential means no bearer token was found in the request.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential means a token was presented but the authority
	// rejected it (inactive, or a 4xx from introspection).
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrAuthorityUnavailable means the authority could not be reached,
	// timed out, or answered with a server error. It is an operational
	// fault, not a security decision, and must propagate unchanged.
	ErrAuthorityUnavailable = errors.New("authority unavailable")

	// ErrAccessDenied means the authority evaluated a well-formed check
	// and said no.
	ErrAccessDenied = errors.New("access denied")

	// ErrMissingContext means an access check was attempted without an
	// organization id. This is a caller input error, not an authorization
	// failure.
	ErrMissingContext = errors.New("missing organization context")
)

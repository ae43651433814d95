// Package auth provides bearer-token authentication and remote,
// context-scoped authorization for authgate.
//
// # Token Validation
//
// Tokens are extracted from the Authorization header (Bearer scheme) or the
// access_token cookie, then validated against the authority's introspection
// endpoint:
//
//	validator := auth.NewValidator(client, cache, logger)
//	user, err := validator.Validate(ctx, token)
//
// Successful validations are cached per raw token for 30 seconds. Caching is
// bypassed entirely when the process runs in development mode, so operators
// can see token-claim changes immediately while debugging.
//
// # Access Checks
//
// Permission and role checks are delegated to the authority, scoped by org,
// workspace and object (read from x-org-id, x-workspace-id, x-object-id and
// x-object-type request headers):
//
//	ok, err := evaluator.HasPermission(ctx, user, []string{"doc:write"}, auth.MatchAll, scope)
//
// The user's own credential is forwarded as bearer proof on every check.
//
// # Error Taxonomy
//
// Every failure maps to exactly one of a closed set of sentinel errors:
//
//   - ErrMissingCredential: no token in the request (401)
//   - ErrInvalidCredential: authority rejected the token (401)
//   - ErrAuthorityUnavailable: authority unreachable or 5xx (503)
//   - ErrAccessDenied: authority said no (403)
//   - ErrMissingContext: no x-org-id on an access check (400)
//
// ErrAuthorityUnavailable always propagates unchanged; it signals an
// operational fault, not a security decision, and callers must not downgrade
// it. Anything unclassifiable during an access check is treated as a denial,
// never as success.
//
// # Middleware
//
// HTTP middleware wires the pieces together. Routes declare their
// requirements as plain data:
//
//	guard := auth.Guard{Permissions: []string{"doc:write"}, Match: auth.MatchAll}
//	mux.Handle("/docs", auth.Middleware(validator, rec)(auth.RequireGuard(evaluator, guard, rec)(handler)))
//
// The authenticated User travels on the request context via
// WithUser/FromContext.
package auth

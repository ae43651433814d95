// ABOUTME: Authenticated principal and context propagation helpers
// ABOUTME: Provides WithUser/FromContext for carrying identity through handlers

package auth

import "context"

// User is an authenticated principal for the lifetime of one request.
// A User is only ever constructed from a successful introspection; it carries
// the credential it was validated with so later access checks can forward it
// as proof of identity without re-extracting it. Users are never mutated
// after construction.
type User struct {
	Subject     string   // opaque identifier from the authority's "sub"
	Role        string   // optional single role claim
	Permissions []string // optional permission claims; advisory, not authoritative
	Credential  string   // raw bearer token the user was validated with
}

// userContextKey is the key type for storing a User in context.Context.
type userContextKey struct{}

// WithUser returns a new context with the User attached.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// FromContext retrieves the User from the context, returning nil if not present.
func FromContext(ctx context.Context) *User {
	val := ctx.Value(userContextKey{})
	if val == nil {
		return nil
	}
	u, ok := val.(*User)
	if !ok {
		return nil
	}
	return u
}

// MustFromContext retrieves the User from the context, panicking if not present.
func MustFromContext(ctx context.Context) *User {
	u := FromContext(ctx)
	if u == nil {
		panic("auth: User not found in context")
	}
	return u
}

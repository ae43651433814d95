// ABOUTME: Bearer credential extraction from inbound HTTP requests
// ABOUTME: Checks the Authorization header first, then the access_token cookie

package auth

import (
	"net/http"
	"strings"
)

// bearerPrefix is matched case-sensitively with a single trailing space.
const bearerPrefix = "Bearer "

// accessTokenCookie is the fallback cookie consulted when no Authorization
// header is present.
const accessTokenCookie = "access_token"

// ExtractToken pulls a bearer token out of the request. It returns the token
// and true on success, or "" and false when the request carries no usable
// credential. Absence is a normal outcome; ExtractToken never fails.
func ExtractToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		if token := h[len(bearerPrefix):]; token != "" {
			return token, true
		}
	}
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

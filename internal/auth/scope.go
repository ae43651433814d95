// ABOUTME: Access-check scoping (org/workspace/object) and match-mode types
// ABOUTME: Scopes are built fresh from request headers for every check

package auth

import (
	"net/http"
	"strings"
)

// MatchMode controls how the authority reduces a requirement set to a single
// decision: any one member granted, or all of them.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// Request headers the scope is read from.
const (
	HeaderOrgID      = "x-org-id"
	HeaderWorkspace  = "x-workspace-id"
	HeaderObjectID   = "x-object-id"
	HeaderObjectType = "x-object-type"
)

// Scope is the organization/workspace/object context an access decision is
// evaluated under. OrgID is required; the rest narrow the decision when set.
// Scopes are constructed per check and never cached or reused across requests.
type Scope struct {
	OrgID       string
	WorkspaceID string
	ObjectID    string
	ObjectType  string
}

// Valid reports whether the scope carries a non-blank organization id.
func (s Scope) Valid() bool {
	return strings.TrimSpace(s.OrgID) != ""
}

// ScopeFromRequest builds a Scope from the request's x-org-id,
// x-workspace-id, x-object-id and x-object-type headers.
func ScopeFromRequest(r *http.Request) Scope {
	return Scope{
		OrgID:       r.Header.Get(HeaderOrgID),
		WorkspaceID: r.Header.Get(HeaderWorkspace),
		ObjectID:    r.Header.Get(HeaderObjectID),
		ObjectType:  r.Header.Get(HeaderObjectType),
	}
}

// ABOUTME: Tests for access scope construction and validation
// ABOUTME: Scopes come from request headers; only the org id is required

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScopeFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-org-id", "org1")
	req.Header.Set("x-workspace-id", "ws1")
	req.Header.Set("x-object-id", "obj1")
	req.Header.Set("x-object-type", "doc")

	scope := ScopeFromRequest(req)
	want := Scope{OrgID: "org1", WorkspaceID: "ws1", ObjectID: "obj1", ObjectType: "doc"}
	if scope != want {
		t.Errorf("ScopeFromRequest() = %+v, want %+v", scope, want)
	}
}

func TestScope_Valid(t *testing.T) {
	cases := []struct {
		name  string
		scope Scope
		want  bool
	}{
		{"org set", Scope{OrgID: "org1"}, true},
		{"empty", Scope{}, false},
		{"blank org", Scope{OrgID: "  "}, false},
		{"workspace without org", Scope{WorkspaceID: "ws1"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

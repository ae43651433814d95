// ABOUTME: Access evaluator delegating permission/role decisions to the authority
// ABOUTME: One generic check path serves both kinds; decisions are never cached locally

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// checkKind selects which authority endpoint and payload/response field names
// a check uses. Permission and role checks are otherwise identical.
type checkKind struct {
	name          string // for logging
	subjectsField string // payload field carrying the requirement list
	decisionField string // response field carrying the decision
}

var (
	kindPermission = checkKind{name: "permission", subjectsField: "permissions", decisionField: "hasPermission"}
	kindRole       = checkKind{name: "role", subjectsField: "roles", decisionField: "hasRole"}
)

// Evaluator asks the authority whether a user holds required permissions or
// roles within a scope. Decisions are not cached: they depend on fast-moving
// org/workspace/object state, unlike token validity.
type Evaluator struct {
	client *Client
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator sharing the given authority client.
func NewEvaluator(client *Client, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		client: client,
		logger: logger.With("component", "evaluator"),
	}
}

// HasPermission asks the authority whether user holds the given permissions
// (any or all, per match) within scope.
func (e *Evaluator) HasPermission(ctx context.Context, user *User, permissions []string, match MatchMode, scope Scope) (bool, error) {
	return e.check(ctx, kindPermission, e.client.permissionURL, user, permissions, match, scope)
}

// HasRole asks the authority whether user holds the given roles (any or all,
// per match) within scope.
func (e *Evaluator) HasRole(ctx context.Context, user *User, roles []string, match MatchMode, scope Scope) (bool, error) {
	return e.check(ctx, kindRole, e.client.roleURL, user, roles, match, scope)
}

// check performs one batched decision call. The authority does the boolean
// reduction; we transmit the requirement list and match mode and read back a
// single decision. The user's credential rides along as bearer proof.
//
// Fail closed: anything that is not a transport fault or 5xx, and is not an
// affirmative decision, is a no. A missing or unreadable decision field is a
// no. Only ErrMissingContext and ErrAuthorityUnavailable surface as errors.
func (e *Evaluator) check(ctx context.Context, kind checkKind, url string, user *User, subjects []string, match MatchMode, scope Scope) (bool, error) {
	if !scope.Valid() {
		return false, fmt.Errorf("%w: %s check requires an org id", ErrMissingContext, kind.name)
	}

	payload := map[string]any{
		"userId": user.Subject,
		"orgId":  scope.OrgID,
		"match":  string(match),
	}
	payload[kind.subjectsField] = subjects
	if scope.WorkspaceID != "" {
		payload["workspaceId"] = scope.WorkspaceID
	}
	if scope.ObjectType != "" {
		payload["objectType"] = scope.ObjectType
	}
	if scope.ObjectID != "" {
		payload["objectId"] = scope.ObjectID
	}

	status, body, err := e.client.postJSON(ctx, url, user.Credential, payload)
	if err := classify(callCheck, status, err); err != nil {
		if errors.Is(err, errCheckRefused) {
			e.logger.Debug("authority refused check", "kind", kind.name, "status", status, "subject", user.Subject)
			return false, nil
		}
		return false, err
	}

	var decision map[string]json.RawMessage
	if err := json.Unmarshal(body, &decision); err != nil {
		e.logger.Warn("unreadable check response, denying", "kind", kind.name, "error", err)
		return false, nil
	}
	raw, ok := decision[kind.decisionField]
	if !ok {
		return false, nil
	}
	var granted bool
	if err := json.Unmarshal(raw, &granted); err != nil {
		e.logger.Warn("non-boolean decision field, denying", "kind", kind.name, "error", err)
		return false, nil
	}

	e.logger.Debug("access check complete",
		"kind", kind.name,
		"subject", user.Subject,
		"org", scope.OrgID,
		"granted", granted,
	)
	return granted, nil
}

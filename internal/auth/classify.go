// ABOUTME: Centralized mapping from (transport outcome, HTTP status) to the error taxonomy
// ABOUTME: Shared by the validator and the evaluator; the single source of truth for boundaries

package auth

import (
	"errors"
	"fmt"
)

// callKind distinguishes which authority call an outcome belongs to, since
// introspection and check calls classify 4xx differently.
type callKind int

const (
	callIntrospect callKind = iota
	callCheck
)

// errCheckRefused marks a non-5xx error status from a check call. The
// evaluator translates it into a plain "decision: no"; it never escapes this
// package.
var errCheckRefused = errors.New("authority refused check")

// classify maps the outcome of an authority call to the error taxonomy.
//
//   - transport failure (including timeout) -> ErrAuthorityUnavailable
//   - status >= 500                         -> ErrAuthorityUnavailable
//   - status 2xx                            -> nil
//   - other statuses, introspection         -> ErrInvalidCredential
//   - other statuses, check                 -> errCheckRefused
//
// A 4xx from a check is the authority saying no, not a system fault; a 4xx
// from introspection means the credential itself is bad.
func classify(kind callKind, status int, transportErr error) error {
	if transportErr != nil {
		return fmt.Errorf("%w: %v", ErrAuthorityUnavailable, transportErr)
	}
	if status >= 500 {
		return fmt.Errorf("%w: authority returned status %d", ErrAuthorityUnavailable, status)
	}
	if status >= 200 && status < 300 {
		return nil
	}
	if kind == callIntrospect {
		return fmt.Errorf("%w: introspection returned status %d", ErrInvalidCredential, status)
	}
	return errCheckRefused
}

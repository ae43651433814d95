// Package audit persists authentication and authorization decisions.
//
// Every outcome the middleware produces (allowed, denied, or a taxonomy
// error) can be appended to a SQLite-backed log for compliance and
// debugging. Recording is best-effort: a failed insert is logged and
// dropped, never surfaced to the request path.
//
// The store implements auth.DecisionRecorder, so wiring it up is just
// passing it to the middleware constructors.
package audit

package session

import "errors"

// Domain-specific errors for session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when an operation needs a live engine and
	// the session has none. Call Connect first.
	ErrNotConnected = errors.New("not connected")

	// ErrClient is returned when the protocol engine rejects a local request,
	// including failure to build the engine.
	ErrClient = errors.New("session: client error")

	// ErrConnection wraps transport failures observed by the supervisor.
	ErrConnection = errors.New("session: connection error")
)

// Stable error codes for callers that cannot use errors.Is, such as API
// clients.
const (
	CodeNotConnected    = "not_connected"
	CodeClientError     = "client_error"
	CodeConnectionError = "connection_error"
)

// ErrorCode maps an error returned by this package to a stable code.
// It returns "" for nil and for errors that did not originate here.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConnected):
		return CodeNotConnected
	case errors.Is(err, ErrClient):
		return CodeClientError
	case errors.Is(err, ErrConnection):
		return CodeConnectionError
	default:
		return ""
	}
}

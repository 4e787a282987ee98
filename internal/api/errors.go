package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
	"github.com/nerrad567/topiclab/internal/profile"
	"github.com/nerrad567/topiclab/internal/session"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeTimeout      = "timeout"
	ErrCodeStorage      = "storage_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeSessionError maps a session failure to a response.
//
//   - not connected: 409
//   - invalid topic or QoS: 400
//   - request deadline: 504
//   - other engine or transport failures: 502
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotConnected):
		writeError(w, http.StatusConflict, session.CodeNotConnected, err.Error())
	case errors.Is(err, mqtt.ErrInvalidTopic), errors.Is(err, mqtt.ErrInvalidQoS):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	case session.ErrorCode(err) != "":
		writeError(w, http.StatusBadGateway, session.ErrorCode(err), err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

// writeProfileError maps a store or lookup failure to a response. Storage
// errors are passed through as opaque messages.
func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, profile.ErrInvalid), errors.Is(err, profile.ErrInvalidColor):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeStorage, err.Error())
	}
}

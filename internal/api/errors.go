// Package api provides the HTTP client for the gallery server: bearer
// credential attachment, expired-token detection with single-flight
// renewal and a single replay, error classification, and typed wrappers
// for every endpoint the client consumes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusTokenExpired is the distinguished status the server returns
// when the access token has expired but a renewal may succeed. It is
// deliberately distinct from 401 (bad credentials) and 403
// (insufficient role), which never trigger renewal.
const StatusTokenExpired = 493

// Sentinel errors for response classification.
// Use errors.Is(err, api.ErrForbidden) to check.
var (
	ErrBadRequest   = errors.New("api: bad request")
	ErrUnauthorized = errors.New("api: invalid credentials")
	ErrForbidden    = errors.New("api: permission denied")
	ErrNotFound     = errors.New("api: not found")
	ErrTokenExpired = errors.New("api: access token expired")
	ErrServerError  = errors.New("api: server error")

	// ErrNotLoggedIn is returned when a renewal is needed but no
	// refresh token is stored.
	ErrNotLoggedIn = errors.New("api: not logged in")
)

// APIError wraps a sentinel error with the HTTP status, the request ID
// the client generated for correlation, and the server's human-readable
// message.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case StatusTokenExpired:
		return ErrTokenExpired
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// serverMessage extracts the human-readable message from an error
// response body. The server uses "msg" on auth routes and "message"
// elsewhere; anything undecodable is passed through verbatim.
func serverMessage(body []byte) string {
	var parsed struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Msg != "" {
			return parsed.Msg
		}

		if parsed.Message != "" {
			return parsed.Message
		}
	}

	return string(body)
}

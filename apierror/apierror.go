// Package apierror normalizes backend failures into a fixed taxonomy.
// The backend reports errors as a bare string, {"message": ...} or
// {"error": ...} depending on the handler; that shape is decoded here and
// nowhere else. Callers branch with errors.Is against the sentinels.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrSeatConflict       = errors.New("seat conflict")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrUnknownServer      = errors.New("unknown server error")
)

// Error pairs a taxonomy sentinel with whatever detail the backend sent.
type Error struct {
	Kind       error
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Normalize maps a non-2xx response onto the taxonomy. 400 and 409 both
// classify as seat conflicts: the backend answers ticket creation races
// with either, depending on its version.
func Normalize(statusCode int, body []byte) error {
	var kind error
	switch {
	case statusCode == http.StatusUnauthorized:
		kind = ErrUnauthenticated
	case statusCode == http.StatusForbidden:
		kind = ErrForbidden
	case statusCode == http.StatusNotFound:
		kind = ErrNotFound
	case statusCode == http.StatusBadRequest || statusCode == http.StatusConflict:
		kind = ErrSeatConflict
	default:
		kind = ErrUnknownServer
	}
	return &Error{Kind: kind, StatusCode: statusCode, Detail: extractDetail(body)}
}

// Transport wraps a connection-level failure (dial, timeout, broken body)
// as NetworkUnavailable.
func Transport(err error) error {
	return &Error{Kind: ErrNetworkUnavailable, Detail: err.Error()}
}

func extractDetail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	var plain string
	if err := json.Unmarshal(body, &plain); err == nil {
		return plain
	}
	return trimmed
}

// UserMessage renders an error as a message the booking screen can show
// directly. Every taxonomy kind gets a distinct, actionable wording.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Authorization required. Please sign in."
	case errors.Is(err, ErrForbidden):
		return "Access denied. Please sign in again."
	case errors.Is(err, ErrNotFound):
		// 404 covers sessions, halls and tickets alike; name the entity
		// when the backend did.
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return fmt.Sprintf("Not found: %s.", strings.TrimSuffix(apiErr.Detail, "."))
		}
		return "The requested item was not found."
	case errors.Is(err, ErrSeatConflict):
		return "This seat was just taken by another customer."
	case errors.Is(err, ErrNetworkUnavailable):
		return "Connection problem. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

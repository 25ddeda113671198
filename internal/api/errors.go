package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched against *RemoteError with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMalformedResponse = errors.New("malformed response")
)

// RemoteError is returned for every failed backend call: transport failures,
// non-2xx responses and payloads that fail schema validation.
type RemoteError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Message    string
	Cause      error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// Is maps HTTP status codes onto the package sentinels.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

func malformed(op string, cause error) *RemoteError {
	return &RemoteError{
		Op:      op,
		Message: "malformed response",
		Cause:   fmt.Errorf("%w: %w", ErrMalformedResponse, cause),
	}
}

package estrapi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the core API answers 404
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is returned when the core API rejects the caller
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRemote is returned for every other failed call
	ErrRemote = errors.New("core api error")
)

// APIError carries the HTTP status and message of a failed core API call.
// It unwraps to one of the sentinel errors above.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func kindForStatus(status int) error {
	switch status {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	}
	return ErrRemote
}

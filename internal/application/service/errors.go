package service

import (
	"context"
	"errors"

	"github.com/estr/backoffice/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Publisher delivers domain events; satisfied by dispatcher.Dispatcher
type Publisher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// ActionObserver records workflow action outcomes; satisfied by metrics.Collector
type ActionObserver interface {
	ObserveAction(subject, action, role, outcome string)
}

var (
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrSelfAuthorization    = errors.New("requester cannot authorize their own change")
	ErrUnknownJob           = errors.New("unknown job")
	// ErrStaleCase means the case moved on since the user's list was loaded
	ErrStaleCase            = errors.New("case status has changed")
)

// ValidationError reports the form field that failed validation. Message is
// shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

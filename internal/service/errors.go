package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"travel-service/internal/store"
)

var (
	// ErrUnauthenticated means the caller presented no valid credentials.
	ErrUnauthenticated = errors.New("authentication credentials were not provided or are invalid")
	// ErrForbidden means an access policy rejected the caller.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrConflict means the write collides with existing state.
	ErrConflict = errors.New("conflict")
	// ErrProviderUnavailable means the payment provider could not be reached.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderProtocol means the payment provider answered unintelligibly.
	ErrProviderProtocol = errors.New("payment provider returned an invalid response")
)

// ValidationError lists the offending input fields and why.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// Add records another problem with field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// OrNil returns nil when nothing was recorded, so callers can write
// `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ProviderFailure carries the payment provider's own report of a failed
// operation.
type ProviderFailure struct {
	Payload map[string]interface{}
}

func (e *ProviderFailure) Error() string {
	if msg, ok := e.Payload["message"].(string); ok && msg != "" {
		return fmt.Sprintf("payment provider reported failure: %s", msg)
	}
	return "payment provider reported failure"
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// fromStore converts store sentinels into service errors for resource.
func fromStore(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound(resource)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s: %w", resource, ErrConflict)
	}
	return err
}

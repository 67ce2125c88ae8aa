// Package apperror defines the error taxonomy shared by the generation core,
// the caches and the HTTP layer.
package apperror

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session is absent or past its TTL.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCacheUnavailable marks an outage of the session cache backing store.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrEmptyContent is returned when there is nothing to embed.
	ErrEmptyContent = errors.New("content is empty")
)

// ValidationError represents malformed or missing request input.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// MalformedResponseError represents LLM output that failed parsing or schema validation.
type MalformedResponseError struct {
	Pass    string
	Message string
	Raw     string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	prefix := "malformed LLM response"
	if e.Pass != "" {
		prefix = fmt.Sprintf("malformed LLM response in %s", e.Pass)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// ExternalServiceError wraps a failure or timeout from the LLM, embedding,
// vector store or research collaborators.
type ExternalServiceError struct {
	Service   string
	Pass      string
	SessionID string
	Cause     error
}

func (e *ExternalServiceError) Error() string {
	msg := fmt.Sprintf("%s call failed", e.Service)
	if e.Pass != "" {
		msg = fmt.Sprintf("%s (pass %s)", msg, e.Pass)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the underlying failure was a deadline.
func (e *ExternalServiceError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}

// External wraps err as an ExternalServiceError unless it already carries
// a more specific classification.
func External(service string, err error) error {
	if err == nil {
		return nil
	}
	var ext *ExternalServiceError
	var malformed *MalformedResponseError
	var validation *ValidationError
	if errors.As(err, &ext) || errors.As(err, &malformed) || errors.As(err, &validation) {
		return err
	}
	return &ExternalServiceError{Service: service, Cause: err}
}

// CacheUnavailableError is returned when the cache backend cannot be reached.
type CacheUnavailableError struct {
	Op    string
	Cause error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("cache unavailable during %s: %v", e.Op, e.Cause)
}

func (e *CacheUnavailableError) Unwrap() error {
	return e.Cause
}

func (e *CacheUnavailableError) Is(target error) bool {
	return target == ErrCacheUnavailable
}

// PassError attaches pass and session context to a failure inside a pipeline pass.
type PassError struct {
	Pass      string
	SessionID string
	Cause     error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %s failed (session %s): %v", e.Pass, e.SessionID, e.Cause)
}

func (e *PassError) Unwrap() error {
	return e.Cause
}

// Package apperrors defines the error taxonomy shared across the service.
// Handlers map these onto HTTP status codes; the job worker captures them
// into the job's error_message field.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed caller input, e.g. an unparsable source URL.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup for an unknown asset or job.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a create that collided with an existing dedup key.
	ErrConflict = errors.New("conflict")
	// ErrPermission marks an ownership mismatch on delete or regenerate.
	ErrPermission = errors.New("permission denied")
)

// ProviderError wraps an upstream transcription or summarization failure.
// Callers branch on it with errors.As instead of inspecting message text.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err as a failure of the named provider.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// ParseError marks provider output that cannot be converted into the
// segment model. It is non-retriable: it always surfaces as a failed job
// or a raised error, never silently dropped.
type ParseError struct {
	Provider string
	Detail   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %s returned malformed output: %s", e.Provider, e.Detail)
}

// Validationf returns a ErrValidation-wrapped error with a formatted detail.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// NotFoundf returns an ErrNotFound-wrapped error with a formatted detail.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflictf returns an ErrConflict-wrapped error with a formatted detail.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

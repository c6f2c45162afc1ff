package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// Configuration errors
	ErrMissingAPIKey = New("API key is required")
	ErrInvalidConfig = New("invalid configuration")

	// Repository errors
	ErrNotFound     = New("not found")
	ErrQueryFailed  = New("query failed")
	ErrInsertFailed = New("insert failed")
	ErrUpdateFailed = New("update failed")

	// Lifecycle errors
	ErrNotCompleted = New("transcription is not completed")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// QuotaExceededError is returned when a request would push a user past one of
// the effective limits. It is not retryable until the period rolls over or an
// admin raises the limit.
type QuotaExceededError struct {
	LimitKey  string
	Reason    string
	Limit     int64
	Current   int64
	Requested int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded (%s): %s", e.LimitKey, e.Reason)
}

// InvalidStateError reports an operation that is not legal from the job's
// current status.
type InvalidStateError struct {
	JobID     int64
	Status    string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s job %d in status %q", e.Operation, e.JobID, e.Status)
}

// ForbiddenError is an authorization failure.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// ProviderError wraps a definitive failure reported by a provider. It is
// recorded on the job rather than surfaced to the caller.
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// TransientGatewayError means the provider could not be reached. No work was
// committed, so the job may be started again.
type TransientGatewayError struct {
	Provider string
	Cause    error
}

func (e *TransientGatewayError) Error() string {
	return fmt.Sprintf("%s temporarily unavailable: %v", e.Provider, e.Cause)
}

func (e *TransientGatewayError) Unwrap() error {
	return e.Cause
}

// NotFound returns an error for items that were not found
func NotFound(itemType string, identifier interface{}) error {
	return Wrapf(ErrNotFound, "%s %v", itemType, identifier)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsQuotaExceeded extracts a QuotaExceededError from err.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// IsTransient reports whether err is a TransientGatewayError.
func IsTransient(err error) bool {
	var te *TransientGatewayError
	return errors.As(err, &te)
}

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Newf("%s is required", field)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return Newf("%s is invalid: %s", field, reason)
}

// OutOfRange returns an error for values outside acceptable range
func OutOfRange(field string, min, max interface{}) error {
	return Newf("%s out of range (must be between %v and %v)", field, min, max)
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/model"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindForbidden          ErrorKind = "forbidden"
	KindConflict           ErrorKind = "conflict"
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindPayloadTooLarge    ErrorKind = "payload_too_large"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindBadRequest         ErrorKind = "bad_request"
)

// CodeQuotaExceeded is set on every quota rejection so clients can branch on
// it without parsing the message
const CodeQuotaExceeded = "quota_exceeded"

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Code      string            `json:"code,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindQuotaExceeded:
		return http.StatusUnprocessableEntity
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Kind: KindUnauthorized, Message: message}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{Kind: KindForbidden, Message: message}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *APIError {
	return &APIError{Kind: KindConflict, Message: message}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{Kind: KindInternal, Message: message}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{Kind: KindBadRequest, Message: message}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{Kind: KindServiceUnavailable, Message: message}
}

// NewQuotaError converts a ledger rejection. Exceeding the per-file size limit
// maps to 413, every other limit to 422.
func NewQuotaError(qe *apperrors.QuotaExceededError) *APIError {
	kind := KindQuotaExceeded
	if qe.LimitKey == string(model.LimitMaxFileSize) {
		kind = KindPayloadTooLarge
	}
	return &APIError{
		Kind:    kind,
		Message: qe.Reason,
		Code:    CodeQuotaExceeded,
		Details: map[string]string{
			"limit_key": qe.LimitKey,
			"limit":     strconv.FormatInt(qe.Limit, 10),
			"current":   strconv.FormatInt(qe.Current, 10),
			"requested": strconv.FormatInt(qe.Requested, 10),
		},
	}
}

// FromError maps a domain error onto its API representation. Unknown errors
// become a generic internal error so nothing leaks to the client.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	if qe, ok := apperrors.IsQuotaExceeded(err); ok {
		return NewQuotaError(qe)
	}

	var stateErr *apperrors.InvalidStateError
	if stderrors.As(err, &stateErr) {
		return &APIError{
			Kind:    KindConflict,
			Message: stateErr.Error(),
			Details: map[string]string{"status": stateErr.Status},
		}
	}

	var forbidden *apperrors.ForbiddenError
	if stderrors.As(err, &forbidden) {
		return NewForbiddenError(forbidden.Message)
	}

	var transient *apperrors.TransientGatewayError
	if stderrors.As(err, &transient) {
		return &APIError{
			Kind:    KindServiceUnavailable,
			Message: fmt.Sprintf("%s is temporarily unavailable, try again", transient.Provider),
			Details: map[string]string{"provider": transient.Provider},
		}
	}

	if apperrors.IsNotFound(err) {
		return &APIError{Kind: KindNotFound, Message: err.Error()}
	}
	if stderrors.Is(err, apperrors.ErrNotCompleted) {
		return NewConflictError(err.Error())
	}

	var appErr *apperrors.Error
	if stderrors.As(err, &appErr) && !isStorageFailure(err) {
		return NewValidationError(appErr.Error(), nil)
	}

	return nil
}

func isStorageFailure(err error) bool {
	return stderrors.Is(err, apperrors.ErrQueryFailed) ||
		stderrors.Is(err, apperrors.ErrInsertFailed) ||
		stderrors.Is(err, apperrors.ErrUpdateFailed)
}

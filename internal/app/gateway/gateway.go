package gateway

import (
	"context"
	"errors"
	"fmt"

	"voicescribe/internal/app/model"
)

// ProviderState is the job state as reported by a transcription provider
type ProviderState string

const (
	StateQueued     ProviderState = "queued"
	StateProcessing ProviderState = "processing"
	StateCompleted  ProviderState = "completed"
	StateError      ProviderState = "error"
)

// IsTerminal reports whether the provider is done with the job
func (s ProviderState) IsTerminal() bool {
	return s == StateCompleted || s == StateError
}

// Config controls a single submission
type Config struct {
	Language      string
	SpeakerLabels bool
	WebhookURL    string
	WebhookSecret string
}

// Update is a provider's view of a submitted job. Payload is set when State
// is completed, ErrorMessage when it is error. Progress is zero when the
// provider does not report progress.
type Update struct {
	State        ProviderState
	Progress     int
	Payload      *model.TranscriptPayload
	ErrorMessage string
}

// TranscriptionGateway submits audio to an external speech-to-text service.
// Retries against the remote service happen inside the implementation.
type TranscriptionGateway interface {
	Submit(ctx context.Context, audioLocation string, cfg Config) (string, error)
	Status(ctx context.Context, handle string) (*Update, error)
	Cancel(ctx context.Context, handle string) error
	Name() string
}

// Error codes shared by gateway implementations
const (
	CodeNetwork        = "network_error"
	CodeRateLimited    = "rate_limit_exceeded"
	CodeUnavailable    = "service_unavailable"
	CodeAuthentication = "authentication_failed"
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "transcript_not_found"
	CodeBadResponse    = "response_parse_error"
)

// Error is returned by gateway implementations. Retryable errors mean the
// provider could not be reached or asked us to back off; nothing was
// committed on its side.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Provider   string `json:"provider"`
	Retryable  bool   `json:"retryable"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// AsError extracts a gateway Error from err
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable gateway error
func IsRetryable(err error) bool {
	ge, ok := AsError(err)
	return ok && ge.Retryable
}

// ErrorForStatus classifies an HTTP status returned by a provider
func ErrorForStatus(provider string, status int, body string) *Error {
	e := &Error{Provider: provider, StatusCode: status, Message: fmt.Sprintf("HTTP %d: %s", status, body)}
	switch {
	case status == 401 || status == 403:
		e.Code = CodeAuthentication
	case status == 404:
		e.Code = CodeNotFound
	case status == 429:
		e.Code = CodeRateLimited
		e.Retryable = true
	case status >= 500:
		e.Code = CodeUnavailable
		e.Retryable = true
	default:
		e.Code = CodeInvalidRequest
	}
	return e
}

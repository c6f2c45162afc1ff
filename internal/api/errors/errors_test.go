package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "voicescribe/internal/app/errors"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   ErrorKind
	}{
		{
			name:       "weekly minutes quota",
			err:        &apperrors.QuotaExceededError{LimitKey: "weeklyAudioMinutes", Reason: "weekly audio minutes exhausted"},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   KindQuotaExceeded,
		},
		{
			name:       "file size quota",
			err:        fmt.Errorf("create: %w", &apperrors.QuotaExceededError{LimitKey: "maxFileSize", Reason: "file too large"}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantKind:   KindPayloadTooLarge,
		},
		{
			name:       "invalid state",
			err:        &apperrors.InvalidStateError{JobID: 1, Status: "completed", Operation: "cancel"},
			wantStatus: http.StatusConflict,
			wantKind:   KindConflict,
		},
		{
			name:       "forbidden",
			err:        &apperrors.ForbiddenError{Message: "not your job"},
			wantStatus: http.StatusForbidden,
			wantKind:   KindForbidden,
		},
		{
			name:       "transient",
			err:        &apperrors.TransientGatewayError{Provider: "assemblyai", Cause: fmt.Errorf("dial tcp")},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   KindServiceUnavailable,
		},
		{
			name:       "not found",
			err:        apperrors.NotFound("transcription", 9),
			wantStatus: http.StatusNotFound,
			wantKind:   KindNotFound,
		},
		{
			name:       "not completed",
			err:        apperrors.ErrNotCompleted,
			wantStatus: http.StatusConflict,
			wantKind:   KindConflict,
		},
		{
			name:       "domain validation",
			err:        apperrors.RequiredField("question"),
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.wantStatus, apiErr.HTTPStatus())
		})
	}
}

func TestFromErrorQuotaDetails(t *testing.T) {
	apiErr := FromError(&apperrors.QuotaExceededError{
		LimitKey: "dailyTranscriptionCount", Reason: "daily limit reached", Limit: 10, Current: 10, Requested: 1,
	})
	require.NotNil(t, apiErr)
	assert.Equal(t, CodeQuotaExceeded, apiErr.Code)
	assert.Equal(t, "dailyTranscriptionCount", apiErr.Details["limit_key"])
	assert.Equal(t, "10", apiErr.Details["limit"])
	assert.Equal(t, "daily limit reached", apiErr.Message)
}

func TestFromErrorUnknown(t *testing.T) {
	assert.Nil(t, FromError(nil))
	assert.Nil(t, FromError(fmt.Errorf("boom")))
	assert.Nil(t, FromError(apperrors.Wrap(fmt.Errorf("disk"), apperrors.ErrQueryFailed.Error())))
}

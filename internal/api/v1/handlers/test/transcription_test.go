package test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/api/v1/routes"
	"voicescribe/internal/api/v1/services"
	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/testutil"
)

const webhookSecret = "hook-secret"

var (
	user  = &middleware.Principal{UserID: 7, Role: "user"}
	admin = &middleware.Principal{UserID: 1, Role: model.RoleAdmin}
)

func setupTestRouter(t *testing.T, principal *middleware.Principal) (*gin.Engine, *testutil.MockServices) {
	gin.SetMode(gin.TestMode)
	mockServices := testutil.NewMockServices(t)

	router := gin.New()
	router.Use(middleware.RequestID())
	routes.RegisterRoutes(router.Group("/api/v1"), &routes.ServiceContainer{
		TranscriptionService: mockServices.TranscriptionService,
		AnalysisService:      mockServices.AnalysisService,
		UsageService:         mockServices.UsageService,
		WebhookService:       mockServices.WebhookService,
		WebhookSecret:        webhookSecret,
		Auth:                 middleware.WithPrincipal(principal),
		Logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return router, mockServices
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func sampleJob(id int64, status model.JobStatus) *dto.TranscriptionResponse {
	owner := int64(7)
	return &dto.TranscriptionResponse{
		ID:           id,
		OwnerID:      &owner,
		Filename:     "1772625600-abcd1234.mp3",
		OriginalName: "meeting.mp3",
		FileSize:     2048,
		Status:       status,
		CreatedAt:    time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
	}
}

func multipartUpload(t *testing.T, fields map[string]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withFile {
		part, err := w.CreateFormFile("file", "meeting.mp3")
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0x49}, 2048))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestTranscriptionHandler_Upload(t *testing.T) {
	tests := []struct {
		name           string
		fields         map[string]string
		withFile       bool
		setupMocks     func(*testutil.MockServices)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:     "successful upload",
			fields:   map[string]string{"display_name": "Weekly sync", "language": "de", "auto_start": "true"},
			withFile: true,
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("Upload", mock.Anything, mock.MatchedBy(func(in services.UploadInput) bool {
					return in.OwnerID == 7 && in.Filename == "meeting.mp3" && in.Size == 2048 &&
						in.DisplayName == "Weekly sync" && in.Language == "de" && in.AutoStart
				})).Return(&dto.UploadResponse{TranscriptionResponse: *sampleJob(11, model.StatusProcessing), Started: true}, nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(11), body["id"])
				assert.Equal(t, "processing", body["status"])
				assert.Equal(t, true, body["started"])
			},
		},
		{
			name:           "missing file",
			fields:         map[string]string{"display_name": "x"},
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "validation", body["kind"])
			},
		},
		{
			name:     "file too large",
			withFile: true,
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("Upload", mock.Anything, mock.Anything).
					Return(nil, &apperrors.QuotaExceededError{LimitKey: "maxFileSize", Reason: "file exceeds 100.0 MB", Limit: 100})
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "quota_exceeded", body["code"])
				assert.Equal(t, "maxFileSize", body["details"].(map[string]interface{})["limit_key"])
			},
		},
		{
			name:     "storage quota",
			withFile: true,
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("Upload", mock.Anything, mock.Anything).
					Return(nil, &apperrors.QuotaExceededError{LimitKey: "totalStorage", Reason: "storage full"})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "quota_exceeded", body["kind"])
				assert.NotEmpty(t, body["request_id"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockServices := setupTestRouter(t, user)
			tt.setupMocks(mockServices)

			body, contentType := multipartUpload(t, tt.fields, tt.withFile)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			tt.validateBody(t, decode(t, rec))
			mockServices.AssertExpectations(t)
		})
	}
}

func TestTranscriptionHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMocks     func(*testutil.MockServices)
		expectedStatus int
	}{
		{
			name: "found",
			path: "/api/v1/transcriptions/5",
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("GetTranscription", mock.Anything, lifecycle.Requester{UserID: 7}, int64(5)).
					Return(sampleJob(5, model.StatusPending), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid id",
			path:           "/api/v1/transcriptions/abc",
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not found",
			path: "/api/v1/transcriptions/99",
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("GetTranscription", mock.Anything, mock.Anything, int64(99)).
					Return(nil, apperrors.NotFound("transcription", 99))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "someone else's job",
			path: "/api/v1/transcriptions/6",
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("GetTranscription", mock.Anything, mock.Anything, int64(6)).
					Return(nil, &apperrors.ForbiddenError{Message: "you do not have access to this transcription"})
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockServices := setupTestRouter(t, user)
			tt.setupMocks(mockServices)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockServices.AssertExpectations(t)
		})
	}
}

func TestTranscriptionHandler_List(t *testing.T) {
	router, mockServices := setupTestRouter(t, user)
	mockServices.TranscriptionService.On("ListTranscriptions", mock.Anything, lifecycle.Requester{UserID: 7},
		dto.ListTranscriptionsQuery{Page: 2, Limit: 1, Status: "completed"}).
		Return(&dto.PaginatedTranscriptionsResponse{
			Transcriptions: []dto.TranscriptionResponse{*sampleJob(3, model.StatusCompleted)},
			Pagination:     dto.NewPagination(2, 1, 3),
		}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions?page=2&limit=1&status=completed", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	body := decode(t, rec)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, true, pagination["has_next"])
	assert.Equal(t, true, pagination["has_prev"])
	assert.Len(t, body["transcriptions"], 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions?status=done", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["details"], "status")
}

func TestTranscriptionHandler_Transitions(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		method         string
		err            error
		expectedStatus int
	}{
		{name: "start accepted", path: "/api/v1/transcriptions/4/start", method: "Start", expectedStatus: http.StatusAccepted},
		{name: "start while processing", path: "/api/v1/transcriptions/4/start", method: "Start",
			err: &apperrors.InvalidStateError{JobID: 4, Status: "processing", Operation: "start"}, expectedStatus: http.StatusConflict},
		{name: "start provider down", path: "/api/v1/transcriptions/4/start", method: "Start",
			err: &apperrors.TransientGatewayError{Provider: "assemblyai", Cause: io.ErrUnexpectedEOF}, expectedStatus: http.StatusServiceUnavailable},
		{name: "start over quota", path: "/api/v1/transcriptions/4/start", method: "Start",
			err: &apperrors.QuotaExceededError{LimitKey: "dailyTranscriptionCount", Reason: "daily limit reached"}, expectedStatus: http.StatusUnprocessableEntity},
		{name: "cancel", path: "/api/v1/transcriptions/4/cancel", method: "Cancel", expectedStatus: http.StatusOK},
		{name: "cancel completed", path: "/api/v1/transcriptions/4/cancel", method: "Cancel",
			err: &apperrors.InvalidStateError{JobID: 4, Status: "completed", Operation: "cancel"}, expectedStatus: http.StatusConflict},
		{name: "retry", path: "/api/v1/transcriptions/4/retry", method: "Retry", expectedStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockServices := setupTestRouter(t, user)
			if tt.err != nil {
				mockServices.TranscriptionService.On(tt.method, mock.Anything, lifecycle.Requester{UserID: 7}, int64(4)).Return(nil, tt.err)
			} else {
				mockServices.TranscriptionService.On(tt.method, mock.Anything, lifecycle.Requester{UserID: 7}, int64(4)).
					Return(sampleJob(4, model.StatusProcessing), nil)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			mockServices.AssertExpectations(t)
		})
	}
}

func eventNames(body string) []string {
	re := regexp.MustCompile(`(?m)^event:\s?(\S+)$`)
	var names []string
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		names = append(names, m[1])
	}
	return names
}

func TestTranscriptionHandler_Events(t *testing.T) {
	router, mockServices := setupTestRouter(t, user)

	ch := make(chan events.Event, 4)
	ch <- events.Event{Type: events.TypeProgress, JobID: 8, Status: model.StatusProcessing, Progress: 40}
	ch <- events.Event{Type: events.TypeCompleted, JobID: 8, Status: model.StatusCompleted, Progress: 100}
	ch <- events.Event{Type: events.TypeAnalysed, JobID: 8, Status: model.StatusCompleted, Progress: 100}
	unsubscribed := false
	mockServices.TranscriptionService.On("Subscribe", mock.Anything, lifecycle.Requester{UserID: 7}, int64(8)).
		Return(sampleJob(8, model.StatusProcessing), ch, func() { unsubscribed = true }, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions/8/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"))
	assert.Equal(t, []string{"snapshot", events.TypeProgress, events.TypeCompleted}, eventNames(rec.Body.String()))
	assert.True(t, unsubscribed)
}

func TestTranscriptionHandler_EventsTerminalSnapshot(t *testing.T) {
	router, mockServices := setupTestRouter(t, user)
	mockServices.TranscriptionService.On("Subscribe", mock.Anything, mock.Anything, int64(9)).
		Return(sampleJob(9, model.StatusError), make(chan events.Event), func() {}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions/9/events", nil))

	assert.Equal(t, []string{"snapshot"}, eventNames(rec.Body.String()))
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/errors"
	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/api/v1/services"
	"voicescribe/internal/app/lifecycle"
)

// TranscriptionHandler handles transcription-related API endpoints
type TranscriptionHandler struct {
	service   services.TranscriptionService
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(service services.TranscriptionService, logger *slog.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		service:   service,
		logger:    logger,
		heartbeat: 15 * time.Second,
	}
}

// WithHeartbeat sets the SSE keep-alive interval
func (h *TranscriptionHandler) WithHeartbeat(d time.Duration) *TranscriptionHandler {
	h.heartbeat = d
	return h
}

// Upload handles POST /api/v1/transcriptions
//
// @Summary Upload audio for transcription
// @Description Stores the audio file and creates a pending transcription job. Set auto_start to submit it immediately.
// @Tags transcriptions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file"
// @Param display_name formData string false "Display name"
// @Param language formData string false "Language code" default(en)
// @Param auto_start formData bool false "Submit to the provider right away"
// @Success 201 {object} dto.UploadResponse
// @Failure 413 {object} errors.APIError "File exceeds the size limit"
// @Failure 422 {object} errors.APIError "Quota exceeded or invalid input"
// @Security BearerAuth
// @Router /transcriptions [post]
func (h *TranscriptionHandler) Upload(c *gin.Context) {
	req, ok := requester(c)
	if !ok {
		return
	}

	var form dto.UploadRequest
	if err := c.ShouldBind(&form); err != nil {
		middleware.HandleError(c, errors.NewValidationError("Validation failed", map[string]string{"form": err.Error()}))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		middleware.HandleError(c, errors.NewValidationError("No file uploaded", map[string]string{"file": "is required"}))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("Unable to read uploaded file"))
		return
	}
	defer file.Close()

	resp, err := h.service.Upload(c.Request.Context(), services.UploadInput{
		OwnerID:     req.UserID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
		DisplayName: form.DisplayName,
		Language:    form.Language,
		AutoStart:   form.AutoStart,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get handles GET /api/v1/transcriptions/:id
//
// @Summary Get transcription by ID
// @Description Returns the job with its status, progress and, once completed, the transcript
// @Tags transcriptions
// @Produce json
// @Param id path int true "Transcription ID"
// @Success 200 {object} dto.TranscriptionResponse
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Security BearerAuth
// @Router /transcriptions/{id} [get]
func (h *TranscriptionHandler) Get(c *gin.Context) {
	req, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	response, err := h.service.GetTranscription(c.Request.Context(), req, id)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// List handles GET /api/v1/transcriptions
//
// @Summary List the caller's transcriptions
// @Tags transcriptions
// @Produce json
// @Param page query int false "Page number" default(1) minimum(1)
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Param status query string false "Filter by status" Enums(pending,processing,completed,error,cancelled)
// @Success 200 {object} dto.PaginatedTranscriptionsResponse
// @Header 200 {string} X-Total-Count "Total number of transcriptions"
// @Security BearerAuth
// @Router /transcriptions [get]
func (h *TranscriptionHandler) List(c *gin.Context) {
	req, ok := requester(c)
	if !ok {
		return
	}

	var query dto.ListTranscriptionsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.ListTranscriptions(c.Request.Context(), req, query)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(response.Pagination.Total))
	c.JSON(http.StatusOK, response)
}

// Start handles POST /api/v1/transcriptions/:id/start
//
// @Summary Submit a pending job to the transcription provider
// @Tags transcriptions
// @Produce json
// @Param id path int true "Transcription ID"
// @Success 202 {object} dto.TranscriptionResponse
// @Failure 409 {object} errors.APIError "Job is not pending"
// @Failure 422 {object} errors.APIError "Quota exceeded"
// @Failure 503 {object} errors.APIError "Provider unreachable, job still pending"
// @Security BearerAuth
// @Router /transcriptions/{id}/start [post]
func (h *TranscriptionHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start, http.StatusAccepted)
}

// Cancel handles POST /api/v1/transcriptions/:id/cancel
//
// @Summary Cancel a pending or processing job
// @Tags transcriptions
// @Produce json
// @Param id path int true "Transcription ID"
// @Success 200 {object} dto.TranscriptionResponse
// @Failure 403 {object} errors.APIError
// @Failure 409 {object} errors.APIError "Job already finished"
// @Security BearerAuth
// @Router /transcriptions/{id}/cancel [post]
func (h *TranscriptionHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel, http.StatusOK)
}

// Retry handles POST /api/v1/transcriptions/:id/retry
//
// @Summary Create a new job from a failed or cancelled one
// @Tags transcriptions
// @Produce json
// @Param id path int true "Transcription ID"
// @Success 201 {object} dto.TranscriptionResponse
// @Failure 409 {object} errors.APIError
// @Security BearerAuth
// @Router /transcriptions/{id}/retry [post]
func (h *TranscriptionHandler) Retry(c *gin.Context) {
	h.transition(c, h.service.Retry, http.StatusCreated)
}

func (h *TranscriptionHandler) transition(
	c *gin.Context,
	op func(context.Context, lifecycle.Requester, int64) (*dto.TranscriptionResponse, error),
	status int,
) {
	req, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	response, err := op(c.Request.Context(), req, id)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(status, response)
}

// Events handles GET /api/v1/transcriptions/:id/events
//
// @Summary Stream status changes of a job
// @Description Server-sent events. The first event is a snapshot of the job; the stream ends after a terminal status.
// @Tags transcriptions
// @Produce text/event-stream
// @Param id path int true "Transcription ID"
// @Success 200 {string} string "event stream"
// @Security BearerAuth
// @Router /transcriptions/{id}/events [get]
func (h *TranscriptionHandler) Events(c *gin.Context) {
	req, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	current, ch, unsubscribe, err := h.service.Subscribe(c.Request.Context(), req, id)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", current)
	c.Writer.Flush()
	if current.Status.IsTerminal() {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	streamEvents(c, func() bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(e.Type, e)
			return !e.Status.IsTerminal()
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
	h.logger.Debug("event stream closed", "transcription_id", id, "request_id", c.GetString(middleware.RequestIDKey))
}

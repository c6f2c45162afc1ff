package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/errors"
	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/api/v1/services"
	"voicescribe/internal/app/analysis"
	"voicescribe/internal/app/model"
)

// AnalysisHandler handles transcript analysis endpoints
type AnalysisHandler struct {
	service services.AnalysisService
	logger  *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service services.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: service, logger: logger}
}

type analysisOutcome struct {
	result *model.Analysis
	err    error
}

// Analyze handles POST /api/v1/transcriptions/:id/analysis
//
// @Summary Analyse a completed transcript
// @Description Server-sent events: "stage" events report progress, then a single "result" or "error" event. Errors found before the analysis starts are returned as plain JSON.
// @Tags analysis
// @Produce text/event-stream
// @Param id path int true "Transcription ID"
// @Success 200 {string} string "event stream"
// @Failure 409 {object} errors.APIError "Transcription not completed"
// @Security BearerAuth
// @Router /transcriptions/{id}/analysis [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	req, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stages := make(chan analysis.Stage, 8)
	done := make(chan analysisOutcome, 1)
	go func() {
		result, err := h.service.Analyze(ctx, req, id, func(s analysis.Stage) {
			select {
			case stages <- s:
			case <-ctx.Done():
			}
		})
		done <- analysisOutcome{result: result, err: err}
	}()

	// nothing has been written yet, so an early failure is a normal JSON error
	var first analysis.Stage
	select {
	case first = <-stages:
	case out := <-done:
		select {
		case first = <-stages:
			done <- out
		default:
			if out.err != nil {
				middleware.HandleError(c, out.err)
				return
			}
			c.JSON(http.StatusOK, out.result)
			return
		}
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("stage", first)
	c.Writer.Flush()

	streamEvents(c, func() bool {
		select {
		case s := <-stages:
			c.SSEvent("stage", s)
			return true
		case out := <-done:
			for drained := false; !drained; {
				select {
				case s := <-stages:
					c.SSEvent("stage", s)
				default:
					drained = true
				}
			}
			if out.err != nil {
				apiErr := errors.FromError(out.err)
				if apiErr == nil {
					h.logger.Error("analysis failed", "transcription_id", id, "error", out.err)
					apiErr = errors.NewInternalError("analysis failed")
				}
				c.SSEvent("error", apiErr)
				return false
			}
			c.SSEvent("result", out.result)
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Ask handles POST /api/v1/transcriptions/:id/ask
//
// @Summary Ask a question about a completed transcript
// @Tags analysis
// @Accept json
// @Produce json
// @Param id path int true "Transcription ID"
// @Param request body dto.AskRequest true "Question"
// @Success 200 {object} dto.AskResponse
// @Failure 409 {object} errors.APIError "Transcription not completed"
// @Failure 422 {object} errors.APIError
// @Security BearerAuth
// @Router /transcriptions/{id}/ask [post]
func (h *AnalysisHandler) Ask(c *gin.Context) {
	req, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body dto.AskRequest
	if err := middleware.ValidateRequest(c, &body); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.Ask(c.Request.Context(), req, id, body.Question)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

package dto

import (
	"time"

	"voicescribe/internal/api/errors"
	"voicescribe/internal/app/model"
)

// TranscriptionResponse represents a transcription job in API responses. It
// is the poll target clients read until the status is terminal.
type TranscriptionResponse struct {
	ID               int64           `json:"id"`
	OwnerID          *int64          `json:"owner_id,omitempty"`
	Filename         string          `json:"filename"`
	OriginalName     string          `json:"original_name"`
	DisplayName      *string         `json:"display_name,omitempty"`
	FileSize         int64           `json:"file_size"`
	Language         string          `json:"language,omitempty"`
	Provider         string          `json:"provider,omitempty"`
	Status           model.JobStatus `json:"status"`
	Progress         int             `json:"progress"`
	TranscriptText   *string         `json:"transcript_text,omitempty"`
	Segments         []model.Segment `json:"segments,omitempty"`
	Speakers         []model.Speaker `json:"speakers,omitempty"`
	DurationSeconds  *float64        `json:"duration_seconds,omitempty"`
	WordCount        *int            `json:"word_count,omitempty"`
	Confidence       *float64        `json:"confidence,omitempty"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	Analysis         *model.Analysis `json:"analysis,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	ProcessingTimeMs int64           `json:"processing_time_ms,omitempty"`
}

// ListTranscriptionsQuery represents query parameters for listing transcriptions
type ListTranscriptionsQuery struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Status string `form:"status"`
}

// Validate checks the status filter against the known statuses
func (q *ListTranscriptionsQuery) Validate() error {
	if q.Status != "" && !model.JobStatus(q.Status).Valid() {
		return errors.NewValidationError("Invalid query parameters", map[string]string{
			"status": "must be one of pending, processing, completed, error, cancelled",
		})
	}
	return nil
}

// Filter converts the query to a repository filter
func (q ListTranscriptionsQuery) Filter() model.JobFilter {
	f := model.JobFilter{Page: q.Page, Limit: q.Limit}
	if q.Status != "" {
		s := model.JobStatus(q.Status)
		f.Status = &s
	}
	return f
}

// PaginatedTranscriptionsResponse represents a paginated list of transcriptions
type PaginatedTranscriptionsResponse struct {
	Transcriptions []TranscriptionResponse `json:"transcriptions"`
	Pagination     PaginationResponse      `json:"pagination"`
}

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination computes pagination metadata
func NewPagination(page, limit, total int) PaginationResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationResponse{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ToTranscriptionResponse converts a job to its response DTO
func ToTranscriptionResponse(j *model.Job) TranscriptionResponse {
	resp := TranscriptionResponse{
		ID:              j.ID,
		OwnerID:         j.OwnerID,
		Filename:        j.Filename,
		OriginalName:    j.OriginalName,
		DisplayName:     j.DisplayName,
		FileSize:        j.FileSize,
		Language:        j.Language,
		Provider:        j.Provider,
		Status:          j.Status,
		Progress:        j.Progress,
		TranscriptText:  j.TranscriptText,
		Segments:        j.Segments,
		Speakers:        j.Speakers,
		DurationSeconds: j.DurationSeconds,
		WordCount:       j.WordCount,
		Confidence:      j.Confidence,
		ErrorMessage:    j.ErrorMessage,
		Analysis:        j.Analysis,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
	}

	if j.StartedAt != nil && j.CompletedAt != nil {
		resp.ProcessingTimeMs = j.CompletedAt.Sub(*j.StartedAt).Milliseconds()
	}

	return resp
}

// UploadRequest is the non-file part of a multipart upload
type UploadRequest struct {
	DisplayName string `form:"display_name" binding:"omitempty,max=255"`
	Language    string `form:"language" binding:"omitempty,max=16"`
	AutoStart   bool   `form:"auto_start"`
}

// UploadResponse is returned after an accepted upload
type UploadResponse struct {
	TranscriptionResponse
	Started bool `json:"started"`
}

package services

import (
	"context"
	"io"

	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/app/analysis"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/quota"
)

// UploadInput is an accepted multipart upload
type UploadInput struct {
	OwnerID     int64
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	DisplayName string
	Language    string
	AutoStart   bool
}

// TranscriptionService defines the interface for transcription operations
type TranscriptionService interface {
	Upload(ctx context.Context, in UploadInput) (*dto.UploadResponse, error)
	GetTranscription(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error)
	ListTranscriptions(ctx context.Context, requester lifecycle.Requester, query dto.ListTranscriptionsQuery) (*dto.PaginatedTranscriptionsResponse, error)
	Start(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error)
	Cancel(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error)
	Retry(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error)
	Subscribe(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, <-chan events.Event, func(), error)
}

// AnalysisService defines the interface for transcript analysis operations
type AnalysisService interface {
	Analyze(ctx context.Context, requester lifecycle.Requester, id int64, onStage func(analysis.Stage)) (*model.Analysis, error)
	Ask(ctx context.Context, requester lifecycle.Requester, id int64, question string) (*dto.AskResponse, error)
}

// UsageService defines the interface for quota reads and admin limit management
type UsageService interface {
	Usage(ctx context.Context, userID int64) (*quota.Snapshot, error)
	GetUserLimits(ctx context.Context, userID int64) (*dto.UserLimitsResponse, error)
	SetUserLimits(ctx context.Context, userID int64, overrides model.LimitOverrides) (*dto.UserLimitsResponse, error)
	ResetUsage(ctx context.Context, userID int64, period model.PeriodType) error
	GetDefaultLimits(ctx context.Context) (model.Limits, error)
	SetDefaultLimits(ctx context.Context, limits model.Limits) (model.Limits, error)
}

// WebhookService handles provider callbacks. It reports false when the
// callback refers to a transcription this service does not know.
type WebhookService interface {
	HandleTranscriptUpdate(ctx context.Context, handle string) (bool, error)
}

// HealthService reports dependency health
type HealthService interface {
	Check(ctx context.Context) map[string]string
}

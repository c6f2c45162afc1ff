package services

import (
	"context"

	"go.uber.org/zap"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/gateway"
	"voicescribe/internal/app/model"
)

// HandleLookup finds the job a provider handle belongs to
type HandleLookup interface {
	GetByProviderHandle(ctx context.Context, handle string) (*model.Job, error)
}

// ProgressReporter receives provider updates
type ProgressReporter interface {
	ReportProgress(ctx context.Context, jobID int64, progress int, state gateway.ProviderState, payload *model.TranscriptPayload, errMsg string) error
}

// WebhookServiceImpl implements WebhookService. The callback body is only a
// hint: the authoritative state is fetched from the provider.
type WebhookServiceImpl struct {
	jobs     HandleLookup
	gw       gateway.TranscriptionGateway
	reporter ProgressReporter
	logger   *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(jobs HandleLookup, gw gateway.TranscriptionGateway, reporter ProgressReporter, logger *zap.Logger) *WebhookServiceImpl {
	return &WebhookServiceImpl{jobs: jobs, gw: gw, reporter: reporter, logger: logger.Named("webhook")}
}

// HandleTranscriptUpdate fetches the provider's state of handle and reports it
func (s *WebhookServiceImpl) HandleTranscriptUpdate(ctx context.Context, handle string) (bool, error) {
	job, err := s.jobs.GetByProviderHandle(ctx, handle)
	if apperrors.IsNotFound(err) {
		s.logger.Info("webhook for unknown transcript ignored", zap.String("handle", handle))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if job.Provider != s.gw.Name() {
		s.logger.Warn("webhook for a job of another provider ignored",
			zap.Int64("job_id", job.ID), zap.String("provider", job.Provider))
		return false, nil
	}

	update, err := s.gw.Status(ctx, handle)
	if err != nil {
		return true, err
	}
	if err := s.reporter.ReportProgress(ctx, job.ID, update.Progress, update.State, update.Payload, update.ErrorMessage); err != nil {
		return true, err
	}
	return true, nil
}

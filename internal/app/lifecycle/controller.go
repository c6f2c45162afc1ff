package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/gateway"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/quota"
	"voicescribe/internal/app/repository"
)

// QuotaLedger is the part of the quota ledger the controller needs
type QuotaLedger interface {
	CheckCreate(ctx context.Context, userID int64, fileSize int64) error
	CheckReuse(ctx context.Context, userID int64, fileSize int64) error
	CheckStart(ctx context.Context, userID int64) error
	Debit(ctx context.Context, userID int64, audioMinutes, count, storageBytes int64) error
}

// AudioLocator turns a storage key into a URL the provider can fetch
type AudioLocator interface {
	Locate(ctx context.Context, storageKey string) (string, error)
}

// LocatorFunc adapts a function to AudioLocator
type LocatorFunc func(ctx context.Context, storageKey string) (string, error)

// Locate calls f
func (f LocatorFunc) Locate(ctx context.Context, storageKey string) (string, error) {
	return f(ctx, storageKey)
}

// Requester identifies who is acting on a job
type Requester struct {
	UserID int64
	Admin  bool
}

// CanAccess reports whether r may read or act on job
func (r Requester) CanAccess(job *model.Job) bool {
	return r.Admin || job.IsOwnedBy(r.UserID)
}

// Config holds controller settings
type Config struct {
	SubmitTimeout   time.Duration
	CancelTimeout   time.Duration
	// DefaultLanguage applies to uploads without a language; empty lets the
	// provider detect it
	DefaultLanguage string
	SpeakerLabels   bool
	WebhookURL      string
	WebhookSecret   string
}

// DefaultConfig returns the controller defaults
func DefaultConfig() Config {
	return Config{
		SubmitTimeout:   30 * time.Second,
		CancelTimeout:   30 * time.Second,
		DefaultLanguage: "",
		SpeakerLabels:   true,
	}
}

// maxReportedProgress keeps provider-reported progress below the value
// reserved for completion
const maxReportedProgress = 99

// Controller owns every status transition of a transcription job. Each
// transition is a guarded update in the repository, so concurrent callers
// (webhooks, the reconciler, users) race safely: exactly one wins and the
// rest become no-ops.
type Controller struct {
	jobs    repository.JobRepository
	ledger  QuotaLedger
	gateway gateway.TranscriptionGateway
	locator AudioLocator
	bus     events.Bus
	logger  *zap.Logger
	config  Config

	validate *validator.Validate
	wg       sync.WaitGroup
}

// NewController creates a lifecycle controller
func NewController(
	jobs repository.JobRepository,
	ledger QuotaLedger,
	gw gateway.TranscriptionGateway,
	locator AudioLocator,
	bus events.Bus,
	logger *zap.Logger,
	config Config,
) *Controller {
	if config.SubmitTimeout <= 0 {
		config.SubmitTimeout = DefaultConfig().SubmitTimeout
	}
	if config.CancelTimeout <= 0 {
		config.CancelTimeout = DefaultConfig().CancelTimeout
	}
	return &Controller{
		jobs:     jobs,
		ledger:   ledger,
		gateway:  gw,
		locator:  locator,
		bus:      bus,
		logger:   logger,
		config:   config,
		validate: validator.New(),
	}
}

// Wait blocks until background provider cancellations have finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// CreateJob checks the upload against the owner's limits and persists a
// pending job
func (c *Controller) CreateJob(ctx context.Context, ownerID int64, meta model.FileMetadata) (*model.Job, error) {
	return c.createJob(ctx, ownerID, meta, c.ledger.CheckCreate)
}

func (c *Controller) createJob(ctx context.Context, ownerID int64, meta model.FileMetadata, check func(context.Context, int64, int64) error) (*model.Job, error) {
	if err := c.validate.Struct(meta); err != nil {
		return nil, apperrors.InvalidField("file", err.Error())
	}
	if err := check(ctx, ownerID, meta.FileSize); err != nil {
		return nil, err
	}

	language := meta.Language
	if language == "" {
		language = c.config.DefaultLanguage
	}
	job := &model.Job{
		OwnerID:      &ownerID,
		Filename:     meta.Filename,
		OriginalName: meta.OriginalName,
		DisplayName:  meta.DisplayName,
		FileSize:     meta.FileSize,
		StorageKey:   meta.StorageKey,
		Language:     language,
	}
	if err := c.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	transitionsTotal.WithLabelValues(string(model.StatusPending)).Inc()
	c.logger.Info("job created",
		zap.Int64("job_id", job.ID),
		zap.Int64("owner_id", ownerID),
		zap.Int64("file_size", job.FileSize))
	c.publish(ctx, events.TypeCreated, job.ID, model.StatusPending, 0, "")
	return job, nil
}

// StartJob submits a pending job to the provider and moves it to processing.
//
// A provider that cannot be reached leaves the job pending and returns a
// TransientGatewayError. A provider that rejects the audio moves the job to
// error; that is recorded on the job and StartJob returns nil.
func (c *Controller) StartJob(ctx context.Context, jobID int64) error {
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != model.StatusPending {
		return &apperrors.InvalidStateError{JobID: jobID, Status: string(job.Status), Operation: "start"}
	}
	if job.OwnerID != nil {
		if err := c.ledger.CheckStart(ctx, *job.OwnerID); err != nil {
			return err
		}
	}

	location, err := c.locator.Locate(ctx, job.StorageKey)
	if err != nil {
		return fmt.Errorf("locate audio for job %d: %w", jobID, err)
	}

	provider := c.gateway.Name()
	submitCtx, cancel := context.WithTimeout(ctx, c.config.SubmitTimeout)
	handle, err := c.gateway.Submit(submitCtx, location, gateway.Config{
		Language:      job.Language,
		SpeakerLabels: c.config.SpeakerLabels,
		WebhookURL:    c.config.WebhookURL,
		WebhookSecret: c.config.WebhookSecret,
	})
	cancel()
	if err != nil {
		return c.handleSubmitError(ctx, job, provider, err)
	}
	submissionsTotal.WithLabelValues(provider, "accepted").Inc()

	changed, err := c.jobs.MarkProcessing(ctx, jobID, handle, provider)
	if err != nil {
		c.cancelAtProvider(jobID, handle)
		return err
	}
	if !changed {
		// Someone else moved the job while we were submitting. Our submission
		// is orphaned, so ask the provider to drop it.
		c.cancelAtProvider(jobID, handle)
		status := "unknown"
		if current, err := c.jobs.GetByID(ctx, jobID); err == nil {
			status = string(current.Status)
		}
		return &apperrors.InvalidStateError{JobID: jobID, Status: status, Operation: "start"}
	}

	transitionsTotal.WithLabelValues(string(model.StatusProcessing)).Inc()
	c.logger.Info("job started",
		zap.Int64("job_id", jobID),
		zap.String("provider", provider),
		zap.String("handle", handle))
	c.publish(ctx, events.TypeStarted, jobID, model.StatusProcessing, 0, "")
	return nil
}

func (c *Controller) handleSubmitError(ctx context.Context, job *model.Job, provider string, err error) error {
	if ctx.Err() != nil || gateway.IsRetryable(err) {
		submissionsTotal.WithLabelValues(provider, "transient").Inc()
		c.logger.Warn("provider unavailable, job left pending",
			zap.Int64("job_id", job.ID),
			zap.String("provider", provider),
			zap.Error(err))
		return &apperrors.TransientGatewayError{Provider: provider, Cause: err}
	}

	submissionsTotal.WithLabelValues(provider, "rejected").Inc()
	message := err.Error()
	if ge, ok := gateway.AsError(err); ok {
		message = ge.Message
	}
	perr := &apperrors.ProviderError{Provider: provider, Message: message, Cause: err}
	c.logger.Warn("provider rejected job", zap.Int64("job_id", job.ID), zap.Error(perr))
	return c.FinalizeError(ctx, job.ID, "provider rejected the audio: "+message)
}

// ReportProgress applies a provider update. Updates for terminal jobs are
// ignored, so duplicate and out-of-order callbacks are harmless.
func (c *Controller) ReportProgress(ctx context.Context, jobID int64, progress int, state gateway.ProviderState, payload *model.TranscriptPayload, errMsg string) error {
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		ignoredUpdatesTotal.WithLabelValues("terminal").Inc()
		c.logger.Info("ignoring provider update for settled job",
			zap.Int64("job_id", jobID),
			zap.String("status", string(job.Status)),
			zap.String("provider_state", string(state)))
		return nil
	}
	if job.Status != model.StatusProcessing {
		ignoredUpdatesTotal.WithLabelValues("not_started").Inc()
		c.logger.Warn("ignoring provider update for job that is not processing",
			zap.Int64("job_id", jobID),
			zap.String("status", string(job.Status)),
			zap.String("provider_state", string(state)))
		return nil
	}

	switch state {
	case gateway.StateCompleted:
		return c.FinalizeSuccess(ctx, jobID, payload)
	case gateway.StateError:
		if errMsg == "" {
			errMsg = "transcription failed"
		}
		return c.FinalizeError(ctx, jobID, errMsg)
	}

	if progress > maxReportedProgress {
		progress = maxReportedProgress
	}
	if progress <= job.Progress {
		return nil
	}
	changed, err := c.jobs.UpdateProgress(ctx, jobID, progress)
	if err != nil {
		return err
	}
	if changed {
		c.publish(ctx, events.TypeProgress, jobID, model.StatusProcessing, progress, "")
	}
	return nil
}

// FinalizeSuccess stores the transcript and completes the job. Only the call
// that actually completes the job debits the owner's quota; repeats are
// no-ops.
func (c *Controller) FinalizeSuccess(ctx context.Context, jobID int64, payload *model.TranscriptPayload) error {
	if payload == nil {
		return c.FinalizeError(ctx, jobID, "provider returned no transcript")
	}
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	changed, err := c.jobs.MarkCompleted(ctx, jobID, payload)
	if err != nil {
		return err
	}
	if !changed {
		ignoredUpdatesTotal.WithLabelValues("duplicate_completion").Inc()
		c.logger.Info("duplicate completion ignored", zap.Int64("job_id", jobID))
		return nil
	}

	transitionsTotal.WithLabelValues(string(model.StatusCompleted)).Inc()
	minutes := quota.AudioMinutes(payload.DurationSeconds)
	c.logger.Info("job completed",
		zap.Int64("job_id", jobID),
		zap.Float64("duration_seconds", payload.DurationSeconds),
		zap.Int("word_count", payload.WordCount))
	c.publish(ctx, events.TypeCompleted, jobID, model.StatusCompleted, 100, "")

	if job.OwnerID == nil {
		return nil
	}
	if err := c.ledger.Debit(ctx, *job.OwnerID, minutes, 1, job.FileSize); err != nil {
		debitFailuresTotal.Inc()
		c.logger.Error("quota debit failed for completed job",
			zap.Int64("job_id", jobID),
			zap.Int64("owner_id", *job.OwnerID),
			zap.Int64("audio_minutes", minutes),
			zap.Error(err))
	}
	return nil
}

// FinalizeError moves a pending or processing job to error. A job that has
// already settled is left alone.
func (c *Controller) FinalizeError(ctx context.Context, jobID int64, message string) error {
	changed, err := c.jobs.MarkError(ctx, jobID, message)
	if err != nil {
		return err
	}
	if !changed {
		job, err := c.jobs.GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		ignoredUpdatesTotal.WithLabelValues("error_after_settled").Inc()
		c.logger.Warn("error reported for settled job",
			zap.Int64("job_id", jobID),
			zap.String("status", string(job.Status)),
			zap.String("message", message))
		return nil
	}

	transitionsTotal.WithLabelValues(string(model.StatusError)).Inc()
	c.logger.Info("job failed", zap.Int64("job_id", jobID), zap.String("message", message))
	c.publish(ctx, events.TypeFailed, jobID, model.StatusError, 0, message)
	return nil
}

// Cancel marks the job cancelled and asks the provider to drop it in the
// background. The provider's answer is not awaited.
func (c *Controller) Cancel(ctx context.Context, jobID int64, requester Requester) (*model.Job, error) {
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(job) {
		return nil, &apperrors.ForbiddenError{Message: "only the owner or an admin can cancel this transcription"}
	}
	if job.Status.IsTerminal() {
		return nil, &apperrors.InvalidStateError{JobID: jobID, Status: string(job.Status), Operation: "cancel"}
	}

	changed, err := c.jobs.MarkCancelled(ctx, jobID)
	if err != nil {
		return nil, err
	}
	current, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, &apperrors.InvalidStateError{JobID: jobID, Status: string(current.Status), Operation: "cancel"}
	}

	transitionsTotal.WithLabelValues(string(model.StatusCancelled)).Inc()
	c.logger.Info("job cancelled",
		zap.Int64("job_id", jobID),
		zap.Int64("requester", requester.UserID),
		zap.String("previous_status", string(job.Status)))
	c.publish(ctx, events.TypeCancelled, jobID, model.StatusCancelled, current.Progress, "")

	if current.ProviderHandle != nil {
		c.cancelAtProvider(jobID, *current.ProviderHandle)
	}
	return current, nil
}

func (c *Controller) cancelAtProvider(jobID int64, handle string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.config.CancelTimeout)
		defer cancel()
		if err := c.gateway.Cancel(ctx, handle); err != nil {
			c.logger.Warn("provider cancellation failed",
				zap.Int64("job_id", jobID),
				zap.String("handle", handle),
				zap.Error(err))
			return
		}
		c.logger.Debug("provider cancellation sent", zap.Int64("job_id", jobID), zap.String("handle", handle))
	}()
}

// Retry creates a new pending job from a failed or cancelled one over the
// same stored object. The old job is left as it is.
func (c *Controller) Retry(ctx context.Context, jobID int64, requester Requester) (*model.Job, error) {
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(job) {
		return nil, &apperrors.ForbiddenError{Message: "only the owner or an admin can retry this transcription"}
	}
	if job.Status != model.StatusError && job.Status != model.StatusCancelled {
		return nil, &apperrors.InvalidStateError{JobID: jobID, Status: string(job.Status), Operation: "retry"}
	}

	owner := requester.UserID
	if job.OwnerID != nil {
		owner = *job.OwnerID
	}
	// the retry points at the same stored object
	retried, err := c.createJob(ctx, owner, job.Metadata(), c.ledger.CheckReuse)
	if err != nil {
		return nil, err
	}
	c.logger.Info("job retried", zap.Int64("job_id", jobID), zap.Int64("new_job_id", retried.ID))
	return retried, nil
}

// GetJob returns a job the requester may see
func (c *Controller) GetJob(ctx context.Context, jobID int64, requester Requester) (*model.Job, error) {
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(job) {
		return nil, &apperrors.ForbiddenError{Message: "you do not have access to this transcription"}
	}
	return job, nil
}

// ListJobs returns one page of the requester's jobs and the total count
func (c *Controller) ListJobs(ctx context.Context, requester Requester, filter model.JobFilter) ([]*model.Job, int, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidField("status", string(*filter.Status))
	}
	return c.jobs.ListByOwner(ctx, requester.UserID, filter)
}

func (c *Controller) publish(ctx context.Context, eventType string, jobID int64, status model.JobStatus, progress int, message string) {
	if c.bus == nil {
		return
	}
	err := c.bus.Publish(ctx, events.Event{
		Type:         eventType,
		JobID:        jobID,
		Status:       status,
		Progress:     progress,
		ErrorMessage: message,
		At:           time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn("publish job event failed", zap.Int64("job_id", jobID), zap.String("type", eventType), zap.Error(err))
	}
}

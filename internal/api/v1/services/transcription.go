package services

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"

	apierrors "voicescribe/internal/api/errors"
	"voicescribe/internal/api/v1/dto"
	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/storage"
)

// JobController is the subset of the lifecycle controller used by the API
type JobController interface {
	CreateJob(ctx context.Context, ownerID int64, meta model.FileMetadata) (*model.Job, error)
	StartJob(ctx context.Context, jobID int64) error
	Cancel(ctx context.Context, jobID int64, requester lifecycle.Requester) (*model.Job, error)
	Retry(ctx context.Context, jobID int64, requester lifecycle.Requester) (*model.Job, error)
	GetJob(ctx context.Context, jobID int64, requester lifecycle.Requester) (*model.Job, error)
	ListJobs(ctx context.Context, requester lifecycle.Requester, filter model.JobFilter) ([]*model.Job, int, error)
}

// TranscriptionServiceImpl implements TranscriptionService
type TranscriptionServiceImpl struct {
	controller JobController
	store      storage.Store
	bus        events.Bus
	logger     *zap.Logger
	now        func() time.Time
}

// NewTranscriptionService creates a new transcription service
func NewTranscriptionService(controller JobController, store storage.Store, bus events.Bus, logger *zap.Logger) *TranscriptionServiceImpl {
	return &TranscriptionServiceImpl{
		controller: controller,
		store:      store,
		bus:        bus,
		logger:     logger.Named("api"),
		now:        time.Now,
	}
}

// Upload stores the audio object and creates its job. The object is removed
// again when the job cannot be created.
func (s *TranscriptionServiceImpl) Upload(ctx context.Context, in UploadInput) (*dto.UploadResponse, error) {
	if in.Filename == "" {
		return nil, apperrors.RequiredField("file")
	}
	if in.Size <= 0 {
		return nil, apperrors.InvalidField("file", "empty upload")
	}

	obj, err := s.store.Put(ctx, in.OwnerID, in.Filename, in.ContentType, in.Body, in.Size)
	if err != nil {
		return nil, err
	}

	meta := model.FileMetadata{
		Filename:     path.Base(obj.Key),
		OriginalName: in.Filename,
		FileSize:     obj.Size,
		StorageKey:   obj.Key,
		Language:     in.Language,
	}
	if in.DisplayName != "" {
		name := in.DisplayName
		meta.DisplayName = &name
	}

	job, err := s.controller.CreateJob(ctx, in.OwnerID, meta)
	if err != nil {
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), obj.Key); rmErr != nil {
			s.logger.Warn("failed to remove rejected upload", zap.String("key", obj.Key), zap.Error(rmErr))
		}
		return nil, err
	}

	resp := &dto.UploadResponse{TranscriptionResponse: dto.ToTranscriptionResponse(job)}
	if !in.AutoStart {
		return resp, nil
	}

	// the upload itself succeeded, so a failed start only leaves the job pending
	if err := s.controller.StartJob(ctx, job.ID); err != nil {
		s.logger.Info("auto start deferred", zap.Int64("job_id", job.ID), zap.Error(err))
		return resp, nil
	}
	started, err := s.controller.GetJob(ctx, job.ID, lifecycle.Requester{UserID: in.OwnerID})
	if err != nil {
		return resp, nil
	}
	resp.TranscriptionResponse = dto.ToTranscriptionResponse(started)
	resp.Started = true
	return resp, nil
}

// GetTranscription returns one job
func (s *TranscriptionServiceImpl) GetTranscription(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	job, err := s.controller.GetJob(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	resp := dto.ToTranscriptionResponse(job)
	return &resp, nil
}

// ListTranscriptions returns one page of the requester's jobs
func (s *TranscriptionServiceImpl) ListTranscriptions(ctx context.Context, requester lifecycle.Requester, query dto.ListTranscriptionsQuery) (*dto.PaginatedTranscriptionsResponse, error) {
	jobs, total, err := s.controller.ListJobs(ctx, requester, query.Filter())
	if err != nil {
		return nil, err
	}

	items := make([]dto.TranscriptionResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, dto.ToTranscriptionResponse(j))
	}
	return &dto.PaginatedTranscriptionsResponse{
		Transcriptions: items,
		Pagination:     dto.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// Start submits a pending job to the provider
func (s *TranscriptionServiceImpl) Start(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	if _, err := s.controller.GetJob(ctx, id, requester); err != nil {
		return nil, err
	}
	if err := s.controller.StartJob(ctx, id); err != nil {
		return nil, err
	}
	return s.GetTranscription(ctx, requester, id)
}

// Cancel stops a job
func (s *TranscriptionServiceImpl) Cancel(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	job, err := s.controller.Cancel(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	resp := dto.ToTranscriptionResponse(job)
	return &resp, nil
}

// Retry creates a fresh job from a failed or cancelled one
func (s *TranscriptionServiceImpl) Retry(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	job, err := s.controller.Retry(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	resp := dto.ToTranscriptionResponse(job)
	return &resp, nil
}

// Subscribe opens a status stream for a job. The current state is returned
// alongside the channel so callers never miss a transition that happened
// before they subscribed.
func (s *TranscriptionServiceImpl) Subscribe(ctx context.Context, requester lifecycle.Requester, id int64) (*dto.TranscriptionResponse, <-chan events.Event, func(), error) {
	if s.bus == nil {
		return nil, nil, nil, apierrors.NewServiceUnavailableError("event streaming is not enabled")
	}
	if _, err := s.controller.GetJob(ctx, id, requester); err != nil {
		return nil, nil, nil, err
	}

	ch, unsubscribe, err := s.bus.Subscribe(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	// read after subscribing so a transition in between is seen either here or on ch
	current, err := s.GetTranscription(ctx, requester, id)
	if err != nil {
		unsubscribe()
		return nil, nil, nil, err
	}
	return current, ch, unsubscribe, nil
}

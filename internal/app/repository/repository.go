package repository

import (
	"context"
	"time"

	"voicescribe/internal/app/model"
)

// JobRepository persists transcription jobs. Every Mark* method is a single
// guarded UPDATE and reports whether a row changed; false means the job was
// not in a state the transition accepts.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id int64) (*model.Job, error)
	GetByProviderHandle(ctx context.Context, handle string) (*model.Job, error)
	ListByOwner(ctx context.Context, ownerID int64, filter model.JobFilter) ([]*model.Job, int, error)
	ListByStatus(ctx context.Context, status model.JobStatus, limit int) ([]*model.Job, error)

	MarkProcessing(ctx context.Context, id int64, handle, provider string) (bool, error)
	UpdateProgress(ctx context.Context, id int64, progress int) (bool, error)
	MarkCompleted(ctx context.Context, id int64, result *model.TranscriptPayload) (bool, error)
	MarkError(ctx context.Context, id int64, message string) (bool, error)
	MarkCancelled(ctx context.Context, id int64) (bool, error)
	SaveAnalysis(ctx context.Context, id int64, analysis *model.Analysis) (bool, error)

	SumStorageBytes(ctx context.Context, ownerID int64) (int64, error)
}

// QuotaRepository stores usage buckets and per-user limit overrides
type QuotaRepository interface {
	GetPeriod(ctx context.Context, userID int64, period model.PeriodType, start time.Time) (*model.QuotaPeriod, error)
	AddUsage(ctx context.Context, userID int64, anchors []model.PeriodAnchor, minutes, count, bytes int64) error
	ResetPeriod(ctx context.Context, userID int64, period model.PeriodType, start time.Time) (bool, error)

	GetOverrides(ctx context.Context, userID int64) (*model.LimitOverrides, error)
	SetOverrides(ctx context.Context, userID int64, overrides *model.LimitOverrides) error
}

// SettingsRepository is a key/value store for admin-managed settings
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// UserRepository manages job owners
type UserRepository interface {
	CreateUser(ctx context.Context, username, role string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/repository"
)

// StorageCounter reports the bytes a user currently holds in storage
type StorageCounter interface {
	SumStorageBytes(ctx context.Context, ownerID int64) (int64, error)
}

// Ledger enforces per-user limits and records consumption.
//
// Checks are point-in-time reads. Two concurrent requests from one user can
// both pass a check and together overshoot a limit; the overshoot is bounded
// by the number of in-flight requests and the next check blocks.
type Ledger struct {
	repo      repository.QuotaRepository
	storage   StorageCounter
	source    LimitsSource
	overrides *expirable.LRU[string, *model.LimitOverrides]
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock replaces the wall clock used to pick buckets
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithOverridesTTL sets how long per-user overrides are cached
func WithOverridesTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		l.overrides = expirable.NewLRU[string, *model.LimitOverrides](1024, nil, ttl)
	}
}

// NewLedger creates a quota ledger
func NewLedger(repo repository.QuotaRepository, storage StorageCounter, source LimitsSource, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		repo:      repo,
		storage:   storage,
		source:    source,
		overrides: expirable.NewLRU[string, *model.LimitOverrides](1024, nil, 30*time.Second),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limits resolves the effective limits for a user
func (l *Ledger) Limits(ctx context.Context, userID int64) (model.EffectiveLimits, error) {
	defaults, err := l.source.Defaults(ctx)
	if err != nil {
		return model.EffectiveLimits{}, err
	}
	overrides, err := l.GetOverride(ctx, userID)
	if err != nil {
		return model.EffectiveLimits{}, err
	}
	return Resolve(defaults, overrides), nil
}

// CheckCreate verifies an upload of fileSize bytes fits the file size limit
// and the remaining storage
func (l *Ledger) CheckCreate(ctx context.Context, userID int64, fileSize int64) error {
	limits, err := l.Limits(ctx, userID)
	if err != nil {
		return err
	}

	if err := l.checkFileSize(userID, limits, fileSize); err != nil {
		return err
	}

	used, err := l.storage.SumStorageBytes(ctx, userID)
	if err != nil {
		return err
	}
	if used+fileSize > limits.TotalStorageBytes {
		return l.reject(userID, &apperrors.QuotaExceededError{
			LimitKey:  string(model.LimitTotalStorage),
			Reason:    fmt.Sprintf("%s of %s storage used, upload needs %s", formatMB(used), formatMB(limits.TotalStorageBytes), formatMB(fileSize)),
			Limit:     limits.TotalStorageBytes,
			Current:   used,
			Requested: fileSize,
		})
	}
	return nil
}

// CheckReuse verifies a new job over an object the user already stores.
// The object is counted in storage already, so only the file size limit
// applies.
func (l *Ledger) CheckReuse(ctx context.Context, userID int64, fileSize int64) error {
	limits, err := l.Limits(ctx, userID)
	if err != nil {
		return err
	}
	return l.checkFileSize(userID, limits, fileSize)
}

func (l *Ledger) checkFileSize(userID int64, limits model.EffectiveLimits, fileSize int64) error {
	if fileSize > limits.MaxFileSizeBytes {
		return l.reject(userID, &apperrors.QuotaExceededError{
			LimitKey:  string(model.LimitMaxFileSize),
			Reason:    fmt.Sprintf("file is %s, the limit is %s", formatMB(fileSize), formatMB(limits.MaxFileSizeBytes)),
			Limit:     limits.MaxFileSizeBytes,
			Current:   0,
			Requested: fileSize,
		})
	}
	return nil
}

// CheckStart verifies the user still has transcriptions and audio minutes
// left in the open buckets
func (l *Ledger) CheckStart(ctx context.Context, userID int64) error {
	limits, err := l.Limits(ctx, userID)
	if err != nil {
		return err
	}
	now := l.now()

	daily, err := l.repo.GetPeriod(ctx, userID, model.PeriodDaily, PeriodStart(model.PeriodDaily, now))
	if err != nil {
		return err
	}
	weekly, err := l.repo.GetPeriod(ctx, userID, model.PeriodWeekly, PeriodStart(model.PeriodWeekly, now))
	if err != nil {
		return err
	}
	monthly, err := l.repo.GetPeriod(ctx, userID, model.PeriodMonthly, PeriodStart(model.PeriodMonthly, now))
	if err != nil {
		return err
	}

	checks := []struct {
		key   model.LimitKey
		used  int64
		limit int64
		unit  string
	}{
		{model.LimitDailyTranscriptionCount, daily.TranscriptionCount, limits.DailyTranscriptionCount, "transcriptions today"},
		{model.LimitWeeklyTranscriptionCount, weekly.TranscriptionCount, limits.WeeklyTranscriptionCount, "transcriptions this week"},
		{model.LimitWeeklyAudioMinutes, weekly.AudioMinutes, limits.WeeklyAudioMinutes, "audio minutes this week"},
		{model.LimitMonthlyAudioMinutes, monthly.AudioMinutes, limits.MonthlyAudioMinutes, "audio minutes this month"},
	}
	for _, c := range checks {
		if c.used >= c.limit {
			return l.reject(userID, &apperrors.QuotaExceededError{
				LimitKey:  string(c.key),
				Reason:    fmt.Sprintf("%d of %d %s used", c.used, c.limit, c.unit),
				Limit:     c.limit,
				Current:   c.used,
				Requested: 1,
			})
		}
	}
	return nil
}

// Debit records one completed job in the daily, weekly and monthly buckets,
// opening them if needed
func (l *Ledger) Debit(ctx context.Context, userID int64, audioMinutes, count, storageBytes int64) error {
	if err := l.repo.AddUsage(ctx, userID, Anchors(l.now()), audioMinutes, count, storageBytes); err != nil {
		return fmt.Errorf("debit user %d: %w", userID, err)
	}
	debitsTotal.Inc()
	debitedMinutesTotal.Add(float64(audioMinutes))
	l.logger.Debug("quota debited",
		zap.Int64("user_id", userID),
		zap.Int64("audio_minutes", audioMinutes),
		zap.Int64("count", count),
		zap.Int64("storage_bytes", storageBytes))
	return nil
}

// GetOverride returns the user's overrides; fields are nil when unset
func (l *Ledger) GetOverride(ctx context.Context, userID int64) (*model.LimitOverrides, error) {
	key := strconv.FormatInt(userID, 10)
	if o, ok := l.overrides.Get(key); ok {
		return o, nil
	}
	o, err := l.repo.GetOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	l.overrides.Add(key, o)
	return o, nil
}

// SetOverride replaces the user's overrides
func (l *Ledger) SetOverride(ctx context.Context, userID int64, o *model.LimitOverrides) error {
	if o == nil {
		o = &model.LimitOverrides{}
	}
	if err := l.repo.SetOverrides(ctx, userID, o); err != nil {
		return err
	}
	l.overrides.Remove(strconv.FormatInt(userID, 10))
	l.logger.Info("limit overrides updated", zap.Int64("user_id", userID), zap.Any("overrides", o))
	return nil
}

// ResetUsage zeroes the user's open bucket of the given period. It is the
// only way counters go down.
func (l *Ledger) ResetUsage(ctx context.Context, userID int64, period model.PeriodType) error {
	if !period.Valid() {
		return apperrors.InvalidField("period", string(period))
	}
	start := PeriodStart(period, l.now())
	changed, err := l.repo.ResetPeriod(ctx, userID, period, start)
	if err != nil {
		return err
	}
	l.logger.Info("usage reset",
		zap.Int64("user_id", userID),
		zap.String("period", string(period)),
		zap.Time("period_start", start),
		zap.Bool("bucket_existed", changed))
	return nil
}

func (l *Ledger) reject(userID int64, err *apperrors.QuotaExceededError) error {
	rejectionsTotal.WithLabelValues(err.LimitKey).Inc()
	l.logger.Info("quota check rejected",
		zap.Int64("user_id", userID),
		zap.String("limit_key", err.LimitKey),
		zap.Int64("limit", err.Limit),
		zap.Int64("current", err.Current))
	return err
}

func formatMB(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/float64(model.MB))
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/model"
)

// QuotaStore implements QuotaRepository
type QuotaStore struct {
	*CommonDB
}

// NewQuotaStore creates a quota store on top of a shared connection
func NewQuotaStore(common *CommonDB) *QuotaStore {
	return &QuotaStore{CommonDB: common}
}

// GetPeriod returns the bucket for the given anchor. A bucket that was never
// opened is returned with zero counters and a zero id.
func (s *QuotaStore) GetPeriod(ctx context.Context, userID int64, period model.PeriodType, start time.Time) (*model.QuotaPeriod, error) {
	q := &model.QuotaPeriod{UserID: userID, PeriodType: period, PeriodStart: start}
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, audio_minutes, transcription_count, storage_bytes, updated_at
		FROM quota_periods WHERE user_id = ? AND period_type = ? AND period_start = ?`),
		userID, string(period), start.UTC(),
	).Scan(&q.ID, &q.AudioMinutes, &q.TranscriptionCount, &q.StorageBytes, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return q, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	return q, nil
}

// AddUsage increments every listed bucket, opening the ones that do not exist
// yet. Each bucket is a single upsert and all of them commit together.
func (s *QuotaStore) AddUsage(ctx context.Context, userID int64, anchors []model.PeriodAnchor, minutes, count, bytes int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := s.rebind(`INSERT INTO quota_periods (
			user_id, period_type, period_start, audio_minutes, transcription_count, storage_bytes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, period_type, period_start) DO UPDATE SET
			audio_minutes = quota_periods.audio_minutes + excluded.audio_minutes,
			transcription_count = quota_periods.transcription_count + excluded.transcription_count,
			storage_bytes = quota_periods.storage_bytes + excluded.storage_bytes,
			updated_at = excluded.updated_at`)

	now := s.now()
	for _, a := range anchors {
		if _, err := tx.ExecContext(ctx, query, userID, string(a.Type), a.Start.UTC(), minutes, count, bytes, now); err != nil {
			return fmt.Errorf("%w: %s bucket: %v", apperrors.ErrInsertFailed, a.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ResetPeriod zeroes the counters of one bucket
func (s *QuotaStore) ResetPeriod(ctx context.Context, userID int64, period model.PeriodType, start time.Time) (bool, error) {
	changed, err := s.exec(ctx, `UPDATE quota_periods
		SET audio_minutes = 0, transcription_count = 0, storage_bytes = 0, updated_at = ?
		WHERE user_id = ? AND period_type = ? AND period_start = ?`,
		s.now(), userID, string(period), start.UTC())
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrUpdateFailed, err)
	}
	return changed, nil
}

// GetOverrides returns the user's limit overrides; all fields are nil when the
// user has none
func (s *QuotaStore) GetOverrides(ctx context.Context, userID int64) (*model.LimitOverrides, error) {
	var weeklyMin, monthlyMin, dailyCount, weeklyCount, maxFile, storage sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT weekly_audio_minutes, monthly_audio_minutes,
			daily_transcription_count, weekly_transcription_count, max_file_size_mb, total_storage_mb
		FROM user_limit_overrides WHERE user_id = ?`), userID,
	).Scan(&weeklyMin, &monthlyMin, &dailyCount, &weeklyCount, &maxFile, &storage)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.LimitOverrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	return &model.LimitOverrides{
		WeeklyAudioMinutes:       nullInt(weeklyMin),
		MonthlyAudioMinutes:      nullInt(monthlyMin),
		DailyTranscriptionCount:  nullInt(dailyCount),
		WeeklyTranscriptionCount: nullInt(weeklyCount),
		MaxFileSizeMB:            nullInt(maxFile),
		TotalStorageMB:           nullInt(storage),
	}, nil
}

// SetOverrides replaces the user's overrides. Nil fields are stored as NULL.
func (s *QuotaStore) SetOverrides(ctx context.Context, userID int64, o *model.LimitOverrides) error {
	_, err := s.exec(ctx, `INSERT INTO user_limit_overrides (
			user_id, weekly_audio_minutes, monthly_audio_minutes, daily_transcription_count,
			weekly_transcription_count, max_file_size_mb, total_storage_mb, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			weekly_audio_minutes = excluded.weekly_audio_minutes,
			monthly_audio_minutes = excluded.monthly_audio_minutes,
			daily_transcription_count = excluded.daily_transcription_count,
			weekly_transcription_count = excluded.weekly_transcription_count,
			max_file_size_mb = excluded.max_file_size_mb,
			total_storage_mb = excluded.total_storage_mb,
			updated_at = excluded.updated_at`,
		userID, o.WeeklyAudioMinutes, o.MonthlyAudioMinutes, o.DailyTranscriptionCount,
		o.WeeklyTranscriptionCount, o.MaxFileSizeMB, o.TotalStorageMB, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInsertFailed, err)
	}
	return nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

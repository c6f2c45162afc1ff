package quota

import (
	"context"
	"time"

	"voicescribe/internal/app/model"
)

// Usage is one counter measured against its limit. Percent is clamped for
// display; RawPercent is not.
type Usage struct {
	Used       int64   `json:"used"`
	Limit      *int64  `json:"limit,omitempty"`
	Percent    float64 `json:"percent"`
	RawPercent float64 `json:"raw_percent"`
}

// PeriodUsage is the state of one bucket
type PeriodUsage struct {
	PeriodStart    time.Time `json:"period_start"`
	ResetsAt       time.Time `json:"resets_at"`
	AudioMinutes   Usage     `json:"audio_minutes"`
	Transcriptions Usage     `json:"transcriptions"`
	UploadedBytes  int64     `json:"uploaded_bytes"`
}

// Snapshot is a read-only view of a user's consumption
type Snapshot struct {
	UserID  int64                 `json:"user_id"`
	Daily   PeriodUsage           `json:"daily"`
	Weekly  PeriodUsage           `json:"weekly"`
	Monthly PeriodUsage           `json:"monthly"`
	Storage Usage                 `json:"storage"`
	Limits  model.EffectiveLimits `json:"limits"`
}

func newUsage(used int64, limit *int64) Usage {
	u := Usage{Used: used, Limit: limit}
	if limit != nil {
		u.Percent = Percent(used, *limit, true)
		u.RawPercent = Percent(used, *limit, false)
	}
	return u
}

// UsageSnapshot reads every open bucket and the storage total
func (l *Ledger) UsageSnapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	limits, err := l.Limits(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := l.now()

	periods := make(map[model.PeriodType]*model.QuotaPeriod, len(model.Periods))
	for _, p := range model.Periods {
		q, err := l.repo.GetPeriod(ctx, userID, p, PeriodStart(p, now))
		if err != nil {
			return nil, err
		}
		periods[p] = q
	}

	storage, err := l.storage.SumStorageBytes(ctx, userID)
	if err != nil {
		return nil, err
	}

	build := func(p model.PeriodType, minutesLimit, countLimit *int64) PeriodUsage {
		q := periods[p]
		return PeriodUsage{
			PeriodStart:    PeriodStart(p, now),
			ResetsAt:       PeriodEnd(p, now),
			AudioMinutes:   newUsage(q.AudioMinutes, minutesLimit),
			Transcriptions: newUsage(q.TranscriptionCount, countLimit),
			UploadedBytes:  q.StorageBytes,
		}
	}

	return &Snapshot{
		UserID:  userID,
		Daily:   build(model.PeriodDaily, nil, &limits.DailyTranscriptionCount),
		Weekly:  build(model.PeriodWeekly, &limits.WeeklyAudioMinutes, &limits.WeeklyTranscriptionCount),
		Monthly: build(model.PeriodMonthly, &limits.MonthlyAudioMinutes, nil),
		Storage: newUsage(storage, &limits.TotalStorageBytes),
		Limits:  limits,
	}, nil
}

package quota

import (
	"math"

	"voicescribe/internal/app/model"
)

// EffectiveLimit resolves a single limit. A nil override means the system
// default applies; zero is a real limit.
func EffectiveLimit(override *int64, def int64) int64 {
	if override != nil {
		return *override
	}
	return def
}

// Resolve applies overrides field by field and converts sizes to bytes
func Resolve(defaults model.Limits, o *model.LimitOverrides) model.EffectiveLimits {
	if o == nil {
		o = &model.LimitOverrides{}
	}
	return model.EffectiveLimits{
		WeeklyAudioMinutes:       EffectiveLimit(o.WeeklyAudioMinutes, defaults.WeeklyAudioMinutes),
		MonthlyAudioMinutes:      EffectiveLimit(o.MonthlyAudioMinutes, defaults.MonthlyAudioMinutes),
		DailyTranscriptionCount:  EffectiveLimit(o.DailyTranscriptionCount, defaults.DailyTranscriptionCount),
		WeeklyTranscriptionCount: EffectiveLimit(o.WeeklyTranscriptionCount, defaults.WeeklyTranscriptionCount),
		MaxFileSizeBytes:         MBToBytes(EffectiveLimit(o.MaxFileSizeMB, defaults.MaxFileSizeMB)),
		TotalStorageBytes:        MBToBytes(EffectiveLimit(o.TotalStorageMB, defaults.TotalStorageMB)),
	}
}

// AudioMinutes converts a duration to billable whole minutes, rounding up
func AudioMinutes(durationSeconds float64) int64 {
	if durationSeconds <= 0 || math.IsNaN(durationSeconds) {
		return 0
	}
	return int64(math.Ceil(durationSeconds / 60))
}

// MBToBytes converts a configured size in MB to bytes
func MBToBytes(mb int64) int64 {
	return mb * model.MB
}

// Percent returns used/limit as a percentage. clamped bounds the result to
// [0,100] for display; enforcement uses the raw value.
func Percent(used, limit int64, clamped bool) float64 {
	var p float64
	switch {
	case limit > 0:
		p = float64(used) / float64(limit) * 100
	case used > 0 || limit == 0:
		p = 100
	}
	if clamped {
		p = math.Max(0, math.Min(100, p))
	}
	return math.Round(p*10) / 10
}

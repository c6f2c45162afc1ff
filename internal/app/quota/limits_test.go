package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"voicescribe/internal/app/model"
)

func ptr(v int64) *int64 { return &v }

func TestEffectiveLimit(t *testing.T) {
	tests := []struct {
		name     string
		override *int64
		def      int64
		expected int64
	}{
		{"unset_uses_default", nil, 300, 300},
		{"override_wins", ptr(600), 300, 600},
		{"zero_is_a_limit", ptr(0), 300, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EffectiveLimit(tt.override, tt.def))
		})
	}
}

func TestResolve(t *testing.T) {
	defaults := model.DefaultLimits()

	limits := Resolve(defaults, &model.LimitOverrides{WeeklyAudioMinutes: ptr(42), TotalStorageMB: ptr(5)})
	assert.Equal(t, int64(42), limits.WeeklyAudioMinutes)
	assert.Equal(t, defaults.MonthlyAudioMinutes, limits.MonthlyAudioMinutes)
	assert.Equal(t, defaults.DailyTranscriptionCount, limits.DailyTranscriptionCount)
	assert.Equal(t, int64(100*1024*1024), limits.MaxFileSizeBytes)
	assert.Equal(t, int64(5*1024*1024), limits.TotalStorageBytes)

	assert.Equal(t, Resolve(defaults, &model.LimitOverrides{}), Resolve(defaults, nil))
}

func TestAudioMinutes(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected int64
	}{
		{0, 0},
		{-5, 0},
		{0.4, 1},
		{59.9, 1},
		{60, 1},
		{60.01, 2},
		{125, 3},
		{3600, 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, AudioMinutes(tt.seconds), "%.2fs", tt.seconds)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 50.0, Percent(5, 10, true))
	assert.Equal(t, 100.0, Percent(105, 100, true))
	assert.Equal(t, 105.0, Percent(105, 100, false))
	assert.Equal(t, 100.0, Percent(0, 0, true), "zero allowance is exhausted")
	assert.Equal(t, 33.3, Percent(1, 3, true))
}

func TestPeriodStart(t *testing.T) {
	wed := time.Date(2026, 3, 4, 17, 45, 12, 0, time.UTC)
	sun := time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC)
	mon := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), PeriodStart(model.PeriodDaily, wed))
	assert.Equal(t, mon, PeriodStart(model.PeriodWeekly, wed))
	assert.Equal(t, mon, PeriodStart(model.PeriodWeekly, sun))
	assert.Equal(t, mon, PeriodStart(model.PeriodWeekly, mon))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), PeriodStart(model.PeriodMonthly, wed))

	// a local time is anchored on its UTC instant
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodStart(model.PeriodDaily, time.Date(2026, 3, 2, 8, 0, 0, 0, tokyo)))

	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), PeriodEnd(model.PeriodWeekly, wed))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), PeriodEnd(model.PeriodMonthly, wed))
	assert.Len(t, Anchors(wed), 3)
}

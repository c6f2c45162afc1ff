package model

import "time"

// MB is the conversion factor between configured limits and stored bytes
const MB int64 = 1024 * 1024

// PeriodType identifies a quota bucket window
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// Periods lists every bucket window
var Periods = []PeriodType{PeriodDaily, PeriodWeekly, PeriodMonthly}

// Valid reports whether p is a known period type
func (p PeriodType) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// LimitKey names one of the six enforced limits
type LimitKey string

const (
	LimitWeeklyAudioMinutes       LimitKey = "weeklyAudioMinutes"
	LimitMonthlyAudioMinutes      LimitKey = "monthlyAudioMinutes"
	LimitDailyTranscriptionCount  LimitKey = "dailyTranscriptionCount"
	LimitWeeklyTranscriptionCount LimitKey = "weeklyTranscriptionCount"
	LimitMaxFileSize              LimitKey = "maxFileSize"
	LimitTotalStorage             LimitKey = "totalStorage"
)

// QuotaPeriod is a usage counter bucket for one user over one window
type QuotaPeriod struct {
	ID                 int64      `json:"id" db:"id"`
	UserID             int64      `json:"user_id" db:"user_id"`
	PeriodType         PeriodType `json:"period_type" db:"period_type"`
	PeriodStart        time.Time  `json:"period_start" db:"period_start"`
	AudioMinutes       int64      `json:"audio_minutes" db:"audio_minutes"`
	TranscriptionCount int64      `json:"transcription_count" db:"transcription_count"`
	StorageBytes       int64      `json:"storage_bytes" db:"storage_bytes"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Limits are the system defaults. Sizes are expressed in MB.
type Limits struct {
	WeeklyAudioMinutes       int64 `json:"weeklyAudioMinutes" yaml:"weekly_audio_minutes" validate:"gte=0"`
	MonthlyAudioMinutes      int64 `json:"monthlyAudioMinutes" yaml:"monthly_audio_minutes" validate:"gte=0"`
	DailyTranscriptionCount  int64 `json:"dailyTranscriptionCount" yaml:"daily_transcription_count" validate:"gte=0"`
	WeeklyTranscriptionCount int64 `json:"weeklyTranscriptionCount" yaml:"weekly_transcription_count" validate:"gte=0"`
	MaxFileSizeMB            int64 `json:"maxFileSizeMB" yaml:"max_file_size_mb" validate:"gte=0"`
	TotalStorageMB           int64 `json:"totalStorageMB" yaml:"total_storage_mb" validate:"gte=0"`
}

// DefaultLimits are used when neither the limits file nor the settings table
// provides a value
func DefaultLimits() Limits {
	return Limits{
		WeeklyAudioMinutes:       300,
		MonthlyAudioMinutes:      1000,
		DailyTranscriptionCount:  10,
		WeeklyTranscriptionCount: 50,
		MaxFileSizeMB:            100,
		TotalStorageMB:           1000,
	}
}

// LimitOverrides are per-user limits set by an admin. A nil field falls back
// to the system default.
type LimitOverrides struct {
	WeeklyAudioMinutes       *int64 `json:"weeklyAudioMinutes" validate:"omitempty,gte=0"`
	MonthlyAudioMinutes      *int64 `json:"monthlyAudioMinutes" validate:"omitempty,gte=0"`
	DailyTranscriptionCount  *int64 `json:"dailyTranscriptionCount" validate:"omitempty,gte=0"`
	WeeklyTranscriptionCount *int64 `json:"weeklyTranscriptionCount" validate:"omitempty,gte=0"`
	MaxFileSizeMB            *int64 `json:"maxFileSizeMB" validate:"omitempty,gte=0"`
	TotalStorageMB           *int64 `json:"totalStorageMB" validate:"omitempty,gte=0"`
}

// EffectiveLimits are resolved limits with sizes already converted to bytes
type EffectiveLimits struct {
	WeeklyAudioMinutes       int64 `json:"weeklyAudioMinutes"`
	MonthlyAudioMinutes      int64 `json:"monthlyAudioMinutes"`
	DailyTranscriptionCount  int64 `json:"dailyTranscriptionCount"`
	WeeklyTranscriptionCount int64 `json:"weeklyTranscriptionCount"`
	MaxFileSizeBytes         int64 `json:"maxFileSizeBytes"`
	TotalStorageBytes        int64 `json:"totalStorageBytes"`
}

// User is the owner of jobs and quota buckets
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RoleAdmin grants cancel rights on any job and access to the admin endpoints
const RoleAdmin = "admin"

// PeriodAnchor identifies one bucket window by its type and start instant
type PeriodAnchor struct {
	Type  PeriodType
	Start time.Time
}

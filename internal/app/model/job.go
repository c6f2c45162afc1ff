package model

import (
	"time"
)

// JobStatus is the lifecycle state of a transcription job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
	StatusCancelled  JobStatus = "cancelled"
)

// AllStatuses lists every job status in lifecycle order
var AllStatuses = []JobStatus{StatusPending, StatusProcessing, StatusCompleted, StatusError, StatusCancelled}

// IsTerminal reports whether no automatic transition leaves s
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// Valid reports whether s is a known status
func (s JobStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Job represents one uploaded audio artifact and its transcription state
type Job struct {
	ID              int64      `json:"id" db:"id"`
	OwnerID         *int64     `json:"owner_id,omitempty" db:"owner_id"`
	Filename        string     `json:"filename" db:"filename"`
	OriginalName    string     `json:"original_name" db:"original_name"`
	DisplayName     *string    `json:"display_name,omitempty" db:"display_name"`
	FileSize        int64      `json:"file_size" db:"file_size"`
	StorageKey      string     `json:"storage_key,omitempty" db:"storage_key"`
	Language        string     `json:"language,omitempty" db:"language"`
	Provider        string     `json:"provider,omitempty" db:"provider"`
	Status          JobStatus  `json:"status" db:"status"`
	Progress        int        `json:"progress" db:"progress"`
	ProviderHandle  *string    `json:"provider_handle,omitempty" db:"provider_handle"`
	TranscriptText  *string    `json:"transcript_text,omitempty" db:"transcript_text"`
	Segments        []Segment  `json:"segments,omitempty" db:"segments"`
	Speakers        []Speaker  `json:"speakers,omitempty" db:"speakers"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty" db:"duration_seconds"`
	WordCount       *int       `json:"word_count,omitempty" db:"word_count"`
	Confidence      *float64   `json:"confidence,omitempty" db:"confidence"`
	ErrorMessage    *string    `json:"error_message,omitempty" db:"error_message"`
	Analysis        *Analysis  `json:"analysis,omitempty" db:"-"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	StartedAt       *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// TableName returns the table name for Job
func (Job) TableName() string {
	return "transcription_jobs"
}

// IsOwnedBy reports whether userID owns the job. Jobs without an owner are
// owned by nobody.
func (j *Job) IsOwnedBy(userID int64) bool {
	return j.OwnerID != nil && *j.OwnerID == userID
}

// Metadata returns the file metadata the job was created from
func (j *Job) Metadata() FileMetadata {
	return FileMetadata{
		Filename:     j.Filename,
		OriginalName: j.OriginalName,
		DisplayName:  j.DisplayName,
		FileSize:     j.FileSize,
		StorageKey:   j.StorageKey,
		Language:     j.Language,
	}
}

// FileMetadata describes an accepted upload
type FileMetadata struct {
	Filename     string  `json:"filename" validate:"required"`
	OriginalName string  `json:"original_name" validate:"required"`
	DisplayName  *string `json:"display_name,omitempty"`
	FileSize     int64   `json:"file_size" validate:"gt=0"`
	StorageKey   string  `json:"storage_key"`
	Language     string  `json:"language"`
}

// Segment is a speaker-labelled span of the transcript. Start and End are
// offsets in milliseconds.
type Segment struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime"`
	Color      string  `json:"color,omitempty"`
}

// Speaker is a distinct voice identified in the audio
type Speaker struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// TranscriptPayload is the terminal result reported by a transcription provider
type TranscriptPayload struct {
	Text            string    `json:"text"`
	Segments        []Segment `json:"segments"`
	Speakers        []Speaker `json:"speakers"`
	DurationSeconds float64   `json:"duration_seconds"`
	WordCount       int       `json:"word_count"`
	Confidence      float64   `json:"confidence"`
}

// SpeakerInsight is the analysis output for one speaker
type SpeakerInsight struct {
	Speaker string `json:"speaker"`
	Insight string `json:"insight"`
}

// Analysis holds the LLM output attached to a completed job
type Analysis struct {
	Summary         string           `json:"summary"`
	KeyPoints       []string         `json:"key_points"`
	ActionItems     []string         `json:"action_items"`
	SpeakerInsights []SpeakerInsight `json:"speaker_insights"`
}

// JobFilter narrows ListByOwner results
type JobFilter struct {
	Status *JobStatus
	Page   int
	Limit  int
}

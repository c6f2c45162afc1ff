package testutil

import (
	"fmt"
	"sync/atomic"

	"voicescribe/internal/app/model"
)

var fixtureSeq atomic.Int64

// NewTestJob returns an unsaved job with realistic file metadata
func NewTestJob(ownerID int64, size int64) *model.Job {
	n := fixtureSeq.Add(1)
	owner := ownerID
	return &model.Job{
		OwnerID:      &owner,
		Filename:     fmt.Sprintf("%d-deadbeef.mp3", 1700000000+n),
		OriginalName: fmt.Sprintf("meeting_%03d.mp3", n),
		FileSize:     size,
		StorageKey:   fmt.Sprintf("audio/%d/%d-deadbeef.mp3", ownerID, 1700000000+n),
		Language:     "en",
	}
}

// SamplePayload is a two-speaker transcript lasting durationSeconds
func SamplePayload(durationSeconds float64) *model.TranscriptPayload {
	return &model.TranscriptPayload{
		Text: "Welcome to the weekly sync. Thanks, let's start with the roadmap.",
		Segments: []model.Segment{
			{Speaker: "Speaker A", Text: "Welcome to the weekly sync.", Start: 0, End: 2400, Confidence: 0.94, StartTime: "00:00", EndTime: "00:02", Color: "#2563eb"},
			{Speaker: "Speaker B", Text: "Thanks, let's start with the roadmap.", Start: 2600, End: 5100, Confidence: 0.9, StartTime: "00:02", EndTime: "00:05", Color: "#dc2626"},
		},
		Speakers: []model.Speaker{
			{ID: "A", Label: "Speaker A", Color: "#2563eb"},
			{ID: "B", Label: "Speaker B", Color: "#dc2626"},
		},
		DurationSeconds: durationSeconds,
		WordCount:       11,
		Confidence:      0.92,
	}
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}

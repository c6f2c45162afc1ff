package events

import (
	"context"
	"time"

	"voicescribe/internal/app/model"
)

// Event types
const (
	TypeCreated   = "created"
	TypeStarted   = "started"
	TypeProgress  = "progress"
	TypeCompleted = "completed"
	TypeFailed    = "failed"
	TypeCancelled = "cancelled"
	TypeAnalysed  = "analysed"
)

// Event is a change to one job, pushed to subscribers
type Event struct {
	Type         string          `json:"type"`
	JobID        int64           `json:"job_id"`
	Status       model.JobStatus `json:"status"`
	Progress     int             `json:"progress"`
	ErrorMessage string          `json:"error_message,omitempty"`
	At           time.Time       `json:"at"`
}

// Bus fans job events out to subscribers. Delivery is best effort: a slow
// subscriber misses events rather than blocking publishers, so clients treat
// events as hints and re-read the job.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, jobID int64) (<-chan Event, func(), error)
	Close() error
}

const subscriberBuffer = 16

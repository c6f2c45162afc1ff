package client

import (
	"context"
	"errors"
	"time"

	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/app/model"
)

// DefaultPollInterval is how often a non-terminal job is re-fetched
const DefaultPollInterval = 1500 * time.Millisecond

// JobFetcher reads the current state of a job
type JobFetcher interface {
	GetTranscription(ctx context.Context, id int64) (*dto.TranscriptionResponse, error)
}

// Poller re-fetches a job until it reaches a terminal status
type Poller struct {
	fetcher   JobFetcher
	interval  time.Duration
	maxErrors int
}

// NewPoller creates a poller with the default interval
func NewPoller(fetcher JobFetcher) *Poller {
	return &Poller{fetcher: fetcher, interval: DefaultPollInterval, maxErrors: 5}
}

// WithInterval overrides the poll interval
func (p *Poller) WithInterval(d time.Duration) *Poller {
	p.interval = d
	return p
}

// WithMaxErrors sets how many consecutive temporary failures are tolerated
func (p *Poller) WithMaxErrors(n int) *Poller {
	p.maxErrors = n
	return p
}

// Wait polls job id and calls onUpdate with every fetched state. It returns
// the first terminal state seen.
//
// A completed job whose progress is still below 100 was read before the
// progress write landed; it is fetched once more immediately and whatever
// that returns is final.
func (p *Poller) Wait(ctx context.Context, id int64, onUpdate func(*dto.TranscriptionResponse)) (*dto.TranscriptionResponse, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		job, err := p.fetcher.GetTranscription(ctx, id)
		switch {
		case err == nil:
			failures = 0
			if onUpdate != nil {
				onUpdate(job)
			}
			if job.Status.IsTerminal() {
				return p.settle(ctx, id, job, onUpdate)
			}
		case isTemporary(err) && failures < p.maxErrors:
			failures++
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) settle(ctx context.Context, id int64, job *dto.TranscriptionResponse, onUpdate func(*dto.TranscriptionResponse)) (*dto.TranscriptionResponse, error) {
	if job.Status != model.StatusCompleted || job.Progress >= 100 {
		return job, nil
	}
	refetched, err := p.fetcher.GetTranscription(ctx, id)
	if err != nil {
		// the stale record is still a completed job
		return job, nil
	}
	if onUpdate != nil {
		onUpdate(refetched)
	}
	return refetched, nil
}

func isTemporary(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

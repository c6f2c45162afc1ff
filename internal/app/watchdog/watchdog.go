package watchdog

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"voicescribe/internal/app/model"
)

// TimeoutMessage is recorded on jobs the watchdog gives up on
const TimeoutMessage = "processing timed out"

var timedOutTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "voicescribe_watchdog_timeouts_total",
	Help: "Processing jobs failed by the staleness watchdog.",
})

// JobLister lists jobs in a given status, least recently updated first
type JobLister interface {
	ListByStatus(ctx context.Context, status model.JobStatus, limit int) ([]*model.Job, error)
}

// Finalizer fails a job
type Finalizer interface {
	FinalizeError(ctx context.Context, jobID int64, message string) error
}

// Config controls the watchdog. A zero MaxProcessing disables it.
type Config struct {
	MaxProcessing time.Duration
	Interval      time.Duration
	BatchSize     int
}

// Watchdog fails processing jobs that have not changed for longer than
// MaxProcessing. A job's updated_at moves only when its progress or status
// changes, so a job the provider is still advancing is never touched.
type Watchdog struct {
	jobs      JobLister
	finalizer Finalizer
	config    Config
	now       func() time.Time
	logger    *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a watchdog
func New(jobs JobLister, finalizer Finalizer, config Config, logger *zap.Logger) *Watchdog {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	return &Watchdog{
		jobs:      jobs,
		finalizer: finalizer,
		config:    config,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "watchdog")),
	}
}

// WithClock replaces the wall clock
func (w *Watchdog) WithClock(now func() time.Time) *Watchdog {
	w.now = now
	return w
}

// Enabled reports whether a timeout is configured
func (w *Watchdog) Enabled() bool {
	return w.config.MaxProcessing > 0
}

// Start runs the watchdog in the background. It does nothing when disabled.
func (w *Watchdog) Start(ctx context.Context) {
	if !w.Enabled() {
		w.logger.Info("watchdog disabled")
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if _, err := w.RunOnce(loopCtx); err != nil {
					w.logger.Error("watchdog pass failed", zap.Error(err))
				}
			}
		}
	}()

	w.logger.Info("watchdog started", zap.Duration("max_processing", w.config.MaxProcessing))
}

// Stop ends the background loop
func (w *Watchdog) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

// RunOnce fails every stale processing job and returns how many it failed
func (w *Watchdog) RunOnce(ctx context.Context) (int, error) {
	if !w.Enabled() {
		return 0, nil
	}
	jobs, err := w.jobs.ListByStatus(ctx, model.StatusProcessing, w.config.BatchSize)
	if err != nil {
		return 0, err
	}

	cutoff := w.now().Add(-w.config.MaxProcessing)
	count := 0
	for _, job := range jobs {
		if job.Status != model.StatusProcessing || !job.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := w.finalizer.FinalizeError(ctx, job.ID, TimeoutMessage); err != nil {
			w.logger.Warn("fail stale job", zap.Int64("job_id", job.ID), zap.Error(err))
			continue
		}
		count++
		timedOutTotal.Inc()
		w.logger.Warn("stale job timed out",
			zap.Int64("job_id", job.ID),
			zap.Time("last_update", job.UpdatedAt),
			zap.Int("progress", job.Progress))
	}
	return count, nil
}

package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voicescribe/internal/app/gateway"
	"voicescribe/internal/app/model"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicescribe_reconciler_runs_total",
		Help: "Reconciliation passes over processing jobs.",
	})

	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicescribe_reconciler_checks_total",
		Help: "Provider status checks, by outcome.",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicescribe_reconciler_run_duration_seconds",
		Help:    "Duration of one reconciliation pass.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

const (
	syntheticStep = 2
	syntheticCap  = 80
)

// JobLister lists jobs in a given status, least recently updated first
type JobLister interface {
	ListByStatus(ctx context.Context, status model.JobStatus, limit int) ([]*model.Job, error)
}

// Reporter receives provider updates
type Reporter interface {
	ReportProgress(ctx context.Context, jobID int64, progress int, state gateway.ProviderState, payload *model.TranscriptPayload, errMsg string) error
	FinalizeError(ctx context.Context, jobID int64, message string) error
}

// Config controls the reconciliation loop
type Config struct {
	Interval     time.Duration
	Concurrency  int
	BatchSize    int
	CheckTimeout time.Duration
}

// Result summarises one pass
type Result struct {
	Checked   int
	Advanced  int
	Finalized int
	Skipped   int
	Errors    int
	Duration  time.Duration
}

// Reconciler polls the provider for every processing job and feeds what it
// learns to the lifecycle controller. It covers providers without webhooks
// and webhooks that never arrive.
type Reconciler struct {
	jobs     JobLister
	gateway  gateway.TranscriptionGateway
	reporter Reporter
	config   Config
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a reconciler
func New(jobs JobLister, gw gateway.TranscriptionGateway, reporter Reporter, config Config, logger *zap.Logger) *Reconciler {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}
	if config.CheckTimeout <= 0 {
		config.CheckTimeout = 30 * time.Second
	}
	return &Reconciler{
		jobs:     jobs,
		gateway:  gw,
		reporter: reporter,
		config:   config,
		logger:   logger.With(zap.String("component", "reconciler")),
	}
}

// Start runs the loop in the background until ctx ends or Stop is called
func (r *Reconciler) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(loopCtx)

	r.logger.Info("reconciler started",
		zap.Duration("interval", r.config.Interval),
		zap.String("provider", r.gateway.Name()))
}

// Stop ends the loop and waits for the current pass to finish
func (r *Reconciler) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Info("reconciler stopped")
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce checks every processing job once. Passes never overlap.
func (r *Reconciler) RunOnce(ctx context.Context) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result := &Result{}

	jobs, err := r.jobs.ListByStatus(ctx, model.StatusProcessing, r.config.BatchSize)
	if err != nil {
		r.logger.Error("list processing jobs", zap.Error(err))
		result.Errors++
		return result
	}

	var checked, advanced, finalized, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	provider := r.gateway.Name()
	for _, job := range jobs {
		if job.ProviderHandle == nil || job.Provider != provider {
			skipped.Add(1)
			continue
		}
		job := job
		g.Go(func() error {
			checked.Add(1)
			outcome, err := r.check(gctx, job)
			checksTotal.WithLabelValues(outcome).Inc()
			switch {
			case err != nil:
				failed.Add(1)
				r.logger.Warn("reconcile job",
					zap.Int64("job_id", job.ID),
					zap.String("handle", *job.ProviderHandle),
					zap.Error(err))
			case outcome == "finalized":
				finalized.Add(1)
			case outcome == "advanced":
				advanced.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Checked = int(checked.Load())
	result.Advanced = int(advanced.Load())
	result.Finalized = int(finalized.Load())
	result.Skipped = int(skipped.Load())
	result.Errors = int(failed.Load())
	result.Duration = time.Since(start)

	runsTotal.Inc()
	runDuration.Observe(result.Duration.Seconds())
	if result.Checked > 0 || result.Errors > 0 {
		r.logger.Info("reconcile pass finished",
			zap.Int("checked", result.Checked),
			zap.Int("advanced", result.Advanced),
			zap.Int("finalized", result.Finalized),
			zap.Int("errors", result.Errors),
			zap.Duration("duration", result.Duration))
	}
	return result
}

func (r *Reconciler) check(ctx context.Context, job *model.Job) (string, error) {
	checkCtx, cancel := context.WithTimeout(ctx, r.config.CheckTimeout)
	defer cancel()

	update, err := r.gateway.Status(checkCtx, *job.ProviderHandle)
	if err != nil {
		if ge, ok := gateway.AsError(err); ok && ge.Code == gateway.CodeNotFound {
			if err := r.reporter.FinalizeError(ctx, job.ID, "the provider no longer knows this transcription"); err != nil {
				return "error", err
			}
			return "finalized", nil
		}
		return "error", err
	}

	if update.State.IsTerminal() {
		if err := r.reporter.ReportProgress(ctx, job.ID, update.Progress, update.State, update.Payload, update.ErrorMessage); err != nil {
			return "error", err
		}
		return "finalized", nil
	}

	progress := NextProgress(job.Progress, update.Progress)
	if progress <= job.Progress {
		return "unchanged", nil
	}
	if err := r.reporter.ReportProgress(ctx, job.ID, progress, update.State, nil, ""); err != nil {
		return "error", err
	}
	return "advanced", nil
}

// NextProgress picks the progress to record for a job still running at the
// provider. Reported progress wins; without it progress creeps up by a fixed
// step and stalls at a cap well short of completion.
func NextProgress(current, reported int) int {
	if reported > 0 {
		return reported
	}
	if current >= syntheticCap {
		return current
	}
	next := current + syntheticStep
	if next > syntheticCap {
		next = syntheticCap
	}
	return next
}

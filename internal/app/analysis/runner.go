package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/model"
)

// JobStore is the part of the job repository the runner needs
type JobStore interface {
	GetByID(ctx context.Context, id int64) (*model.Job, error)
	SaveAnalysis(ctx context.Context, id int64, analysis *model.Analysis) (bool, error)
}

// Runner analyses completed jobs and stores the result on the job
type Runner struct {
	jobs     JobStore
	analyzer Analyzer
	bus      events.Bus
	logger   *zap.Logger
}

// NewRunner creates an analysis runner
func NewRunner(jobs JobStore, analyzer Analyzer, bus events.Bus, logger *zap.Logger) *Runner {
	return &Runner{jobs: jobs, analyzer: analyzer, bus: bus, logger: logger}
}

func (r *Runner) completedTranscript(ctx context.Context, jobID int64, operation string) (string, error) {
	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.Status != model.StatusCompleted {
		return "", &apperrors.InvalidStateError{JobID: jobID, Status: string(job.Status), Operation: operation}
	}
	text := TranscriptText(job)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: job %d has an empty transcript", apperrors.ErrNotCompleted, jobID)
	}
	return text, nil
}

// Run analyses a completed job, reporting stages to onStage, and saves the
// result
func (r *Runner) Run(ctx context.Context, jobID int64, onStage func(Stage)) (*Result, error) {
	text, err := r.completedTranscript(ctx, jobID, "analyse")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := r.analyzer.Analyze(ctx, text, onStage)
	if err != nil {
		r.logger.Warn("analysis failed",
			zap.Int64("job_id", jobID),
			zap.String("analyzer", r.analyzer.Name()),
			zap.Error(err))
		return nil, err
	}

	report(onStage, StageSaving, 90, "saving the analysis")
	changed, err := r.jobs.SaveAnalysis(ctx, jobID, result)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, &apperrors.InvalidStateError{JobID: jobID, Status: "not completed", Operation: "analyse"}
	}

	r.logger.Info("analysis saved",
		zap.Int64("job_id", jobID),
		zap.String("analyzer", r.analyzer.Name()),
		zap.Int("key_points", len(result.KeyPoints)),
		zap.Duration("elapsed", time.Since(start)))
	if r.bus != nil {
		if err := r.bus.Publish(ctx, events.Event{
			Type: events.TypeAnalysed, JobID: jobID, Status: model.StatusCompleted, Progress: 100, At: time.Now().UTC(),
		}); err != nil {
			r.logger.Warn("publish analysis event failed", zap.Int64("job_id", jobID), zap.Error(err))
		}
	}
	report(onStage, StageDone, 100, "analysis complete")
	return result, nil
}

// Ask answers a question about a completed job's transcript
func (r *Runner) Ask(ctx context.Context, jobID int64, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", apperrors.RequiredField("question")
	}
	text, err := r.completedTranscript(ctx, jobID, "ask about")
	if err != nil {
		return "", err
	}
	return r.analyzer.Ask(ctx, text, question)
}

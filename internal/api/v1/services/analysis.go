package services

import (
	"context"
	"strings"

	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/app/analysis"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/model"
)

// AnalysisRunner is the subset of analysis.Runner used by the API
type AnalysisRunner interface {
	Run(ctx context.Context, jobID int64, onStage func(analysis.Stage)) (*analysis.Result, error)
	Ask(ctx context.Context, jobID int64, question string) (string, error)
}

// JobReader checks a requester may see a job
type JobReader interface {
	GetJob(ctx context.Context, jobID int64, requester lifecycle.Requester) (*model.Job, error)
}

// AnalysisServiceImpl implements AnalysisService
type AnalysisServiceImpl struct {
	jobs   JobReader
	runner AnalysisRunner
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(jobs JobReader, runner AnalysisRunner) *AnalysisServiceImpl {
	return &AnalysisServiceImpl{jobs: jobs, runner: runner}
}

// Analyze runs the analysis of a completed transcript
func (s *AnalysisServiceImpl) Analyze(ctx context.Context, requester lifecycle.Requester, id int64, onStage func(analysis.Stage)) (*model.Analysis, error) {
	if _, err := s.jobs.GetJob(ctx, id, requester); err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, id, onStage)
}

// Ask answers a question about a completed transcript
func (s *AnalysisServiceImpl) Ask(ctx context.Context, requester lifecycle.Requester, id int64, question string) (*dto.AskResponse, error) {
	if _, err := s.jobs.GetJob(ctx, id, requester); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	answer, err := s.runner.Ask(ctx, id, question)
	if err != nil {
		return nil, err
	}
	return &dto.AskResponse{TranscriptionID: id, Question: question, Answer: answer}, nil
}
